// Package document is the generic tree between configuration text and typed values.
//
// A Node is a scalar, an ordered list or an ordered mapping whose entries may
// carry a documentation comment. Formats (YAML, TOML) parse text into Nodes
// and serialize Nodes back, keeping enough presentation detail that an
// untouched node is written out the way it was read.
//
// Example:
//
//	root, err := document.YAML.Parse(data)
//	root.Set("port", document.Int(8080))
//	root.SetComment("port", "Port the server listens on")
//	out, err := document.YAML.Serialize(root)
package document
