// Package serialization implements the hierarchical .born container used for
// model weights and experiment recordings.
//
// A container holds an ordered list of named groups. Each group holds an
// ordered list of named datasets (float32 tensors) and optional string
// attributes. Weight files have one group per model layer ("layer_0",
// "layer_1", ...) holding zero or two datasets ("param_0" for weights,
// "param_1" for biases). Experiment files have one group per split ("train",
// "test") holding "stimulus" and "response" datasets.
//
//	Format Structure:
//	  [4 bytes: Magic "BORN"]
//	  [4 bytes: Version (uint32 LE), 3 for grouped containers]
//	  [4 bytes: Flags (uint32 LE)]
//	  [8 bytes: Header Size (uint64 LE)]
//	  [Header: JSON with groups, datasets, attributes and SHA-256 of the data]
//	  [Dataset data: float32 little-endian, section starts 64-byte aligned]
//
// Group and dataset order in the header is the enumeration order reported by
// Reader.Groups, and is preserved exactly as written.
//
// Example usage:
//
//	err := serialization.WriteFile("weights.born", []serialization.Group{
//	    {Name: "layer_0", Datasets: []serialization.Dataset{
//	        {Name: "param_0", Tensor: w},
//	        {Name: "param_1", Tensor: b},
//	    }},
//	    {Name: "layer_1"},
//	}, nil)
//
//	r, err := serialization.Open("weights.born")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer r.Close()
//	w, err := r.Dataset("layer_0", "param_0")
package serialization
