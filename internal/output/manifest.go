package output

import (
	"encoding/json"
	"encoding/xml"

	"github.com/temirov/repoctx/internal/types"
)

const (
	marshalIndentPrefix = ""
	marshalIndentSpacer = "  "
)

// RenderManifestJSON encodes the manifest as indented JSON with a trailing
// line break.
func RenderManifestJSON(manifest types.BundleManifest) (string, error) {
	encodedManifest, marshalError := json.MarshalIndent(manifest, marshalIndentPrefix, marshalIndentSpacer)
	if marshalError != nil {
		return "", marshalError
	}
	return string(encodedManifest) + documentLineBreak, nil
}

// RenderManifestXML encodes the manifest as an indented XML document with
// the standard header and a trailing line break.
func RenderManifestXML(manifest types.BundleManifest) (string, error) {
	encodedManifest, marshalError := xml.MarshalIndent(manifest, marshalIndentPrefix, marshalIndentSpacer)
	if marshalError != nil {
		return "", marshalError
	}
	return xml.Header + string(encodedManifest) + documentLineBreak, nil
}

// RenderNodeJSON encodes a bare tree node hierarchy as indented JSON; the
// tree command's json format uses it.
func RenderNodeJSON(rootNode *types.TreeNode) (string, error) {
	encodedNode, marshalError := json.MarshalIndent(rootNode, marshalIndentPrefix, marshalIndentSpacer)
	if marshalError != nil {
		return "", marshalError
	}
	return string(encodedNode) + documentLineBreak, nil
}

// RenderNodeXML encodes a bare tree node hierarchy as an indented XML
// document.
func RenderNodeXML(rootNode *types.TreeNode) (string, error) {
	encodedNode, marshalError := xml.MarshalIndent(rootNode, marshalIndentPrefix, marshalIndentSpacer)
	if marshalError != nil {
		return "", marshalError
	}
	return xml.Header + string(encodedNode) + documentLineBreak, nil
}
