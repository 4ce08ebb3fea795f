// Package errors provides coded, explainable errors for the patchwire CLI
// and its configuration loader.
//
// Every code (e.g. "P001") maps to a category, a short message and a longer
// explanation. Errors may carry a file location, in which case Format shows
// the surrounding lines:
//
//	err := errors.New("P001").
//	    WithLocation("patchwire.yaml", 4, 3).
//	    WithSuggestion("Indent nested keys with spaces, not tabs").
//	    Wrap(cause)
//
//	errors.PrintError(err)
//	// ERROR P001: Invalid config file
//	//
//	//   patchwire.yaml:4:3
//	//
//	//       2 │ wire:
//	//       3 │   minify: true
//	//   →   4 │ 	maxPatches: 10
//	//         │   ^
//	//  ...
//
// Colors are disabled when NO_COLOR is set.
package errors
