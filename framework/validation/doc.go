// Package validation wraps go-playground/validator with a message bag.
//
// # Basic Usage
//
//	type settings struct {
//	    Port    string `yaml:"port" validate:"required,numeric"`
//	    Workers int    `yaml:"workers" validate:"gte=1,lte=64"`
//	}
//
//	if err := validation.Struct(s); err != nil {
//	    var bag *validation.Errors
//	    if errors.As(err, &bag) {
//	        // bag.Bag: {"port": ["The port field is required."]}
//	    }
//	}
//
// # Messages
//
// Rules are plain validator tags. The common ones get a readable message:
//   - required  "The name field is required."
//   - min/max   "The name must be at least 2 characters."
//   - oneof     "The selected style is invalid."
//   - gt/gte/lte
//   - numeric
//
// Anything else reads "The <field> format is invalid."
package validation
