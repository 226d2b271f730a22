// Package main provides the deepretina CLI.
package main

import (
	"fmt"
	"log"
	"os"
)

const version = "v0.1.0"

func usage() {
	fmt.Println("deepretina - evaluate CNN models of retinal responses")
	fmt.Printf("Version: %s\n\n", version)
	fmt.Println("Commands:")
	fmt.Println("  layers     List the layers of a weight file")
	fmt.Println("  weights    Show the weights or biases of one layer")
	fmt.Println("  init       Create a randomly initialized convnet model directory")
	fmt.Println("  eval       Score a model on the test split of an experiment")
	fmt.Println("  runs       List stored evaluation runs")
	fmt.Println("  version    Show version")
	fmt.Println("")
	fmt.Println("Run 'deepretina <command> -h' for the flags of a command.")
}

func main() {
	log.SetFlags(0)
	log.SetPrefix("deepretina: ")

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cmd, args := os.Args[1], os.Args[2:]
	var err error
	switch cmd {
	case "layers":
		err = runLayers(args)
	case "weights":
		err = runWeights(args)
	case "init":
		err = runInit(args)
	case "eval":
		err = runEval(args)
	case "runs":
		err = runRuns(args)
	case "version":
		fmt.Printf("deepretina %s\n", version)
	case "help", "-h", "--help":
		usage()
	default:
		usage()
		log.Fatalf("unknown command %q", cmd)
	}
	if err != nil {
		log.Fatalf("%s: %v", cmd, err)
	}
}
