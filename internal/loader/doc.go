// Package loader reconstructs retina models from disk and inspects their
// weight files.
//
// A model directory holds:
//   - architecture.json: the layer list, in the Keras "Sequential" layout
//   - one or more weight files: .born containers with one group per layer
//     ("layer_0", "layer_1", ...), each holding "param_0" (weights) and
//     "param_1" (biases) for weighted layers and nothing otherwise
//
// Example:
//
//	model, err := loader.LoadModel("models/convnet", "epoch018_iter01300_weights.born")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Activations of the first convolutional layer
//	conv, err := loader.LoadPartialModel(model, 0)
//
//	// Inspect the weight file
//	err = loader.ListLayers(os.Stdout, "models/convnet", "epoch018_iter01300_weights.born")
//	biases, err := loader.GetWeights("models/convnet/epoch018_iter01300_weights.born", "layer_0", loader.SlotBiases)
//
// Loading is all or nothing: any missing file, unknown layer, or parameter
// shape that disagrees with the architecture is returned as an error and no
// model is produced.
package loader
