package output_test

import (
	"encoding/json"
	"encoding/xml"
	"strings"
	"testing"

	"github.com/temirov/repoctx/internal/output"
	"github.com/temirov/repoctx/internal/types"
)

// TestRenderManifestJSON verifies that the JSON rendering decodes back to the
// manifest fields and ends with a line break.
func TestRenderManifestJSON(testingInstance *testing.T) {
	encodedManifest, renderError := output.RenderManifestJSON(sampleManifest())
	if renderError != nil {
		testingInstance.Fatalf("render manifest: %v", renderError)
	}
	if !strings.HasSuffix(encodedManifest, "\n") {
		testingInstance.Errorf("expected trailing line break")
	}

	var decodedManifest types.BundleManifest
	if unmarshalError := json.Unmarshal([]byte(encodedManifest), &decodedManifest); unmarshalError != nil {
		testingInstance.Fatalf("decode rendered manifest: %v", unmarshalError)
	}
	if decodedManifest.Source != sampleSource {
		testingInstance.Errorf("unexpected source %s", decodedManifest.Source)
	}
	if decodedManifest.Tree == nil || decodedManifest.Tree.Name != "demo" {
		testingInstance.Errorf("unexpected tree %+v", decodedManifest.Tree)
	}
	if len(decodedManifest.Files) != 2 {
		testingInstance.Errorf("expected two file records, got %d", len(decodedManifest.Files))
	}
}

// TestRenderManifestXML verifies the XML header, the document element, and
// the trailing line break of the XML rendering.
func TestRenderManifestXML(testingInstance *testing.T) {
	encodedManifest, renderError := output.RenderManifestXML(sampleManifest())
	if renderError != nil {
		testingInstance.Fatalf("render manifest: %v", renderError)
	}
	if !strings.HasPrefix(encodedManifest, xml.Header) {
		testingInstance.Errorf("expected standard XML header")
	}
	if !strings.Contains(encodedManifest, "<bundle>") {
		testingInstance.Errorf("expected bundle document element:\n%s", encodedManifest)
	}
	if !strings.HasSuffix(encodedManifest, "\n") {
		testingInstance.Errorf("expected trailing line break")
	}
}

// TestRenderNodeJSON verifies the bare tree rendering used by the tree
// command's json format.
func TestRenderNodeJSON(testingInstance *testing.T) {
	encodedNode, renderError := output.RenderNodeJSON(sampleTree())
	if renderError != nil {
		testingInstance.Fatalf("render node: %v", renderError)
	}

	var decodedNode types.TreeNode
	if unmarshalError := json.Unmarshal([]byte(encodedNode), &decodedNode); unmarshalError != nil {
		testingInstance.Fatalf("decode rendered node: %v", unmarshalError)
	}
	if decodedNode.Name != "demo" || len(decodedNode.Children) != 3 {
		testingInstance.Errorf("unexpected node %+v", decodedNode)
	}
}

// TestRenderNodeXML verifies the bare tree rendering used by the tree
// command's xml format.
func TestRenderNodeXML(testingInstance *testing.T) {
	encodedNode, renderError := output.RenderNodeXML(sampleTree())
	if renderError != nil {
		testingInstance.Fatalf("render node: %v", renderError)
	}
	if !strings.HasPrefix(encodedNode, xml.Header) {
		testingInstance.Errorf("expected standard XML header")
	}
	if !strings.Contains(encodedNode, "<node>") {
		testingInstance.Errorf("expected node element:\n%s", encodedNode)
	}
}
