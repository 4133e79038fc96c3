package requestdriver

import (
	"github.com/yourorg/transitcat/internal/catalogue"
	"github.com/yourorg/transitcat/internal/jsontree"
	"github.com/yourorg/transitcat/internal/maprender"
	"github.com/yourorg/transitcat/internal/transitrouter"
)

// Batch is a fully parsed input document: a populated catalogue, the
// routing context (zero value if routing_settings was absent), the
// render settings (zero value if render_settings was absent), and the
// snapshot file path from serialization_settings ("" if absent).
type Batch struct {
	Catalogue         *catalogue.Catalogue
	Routing           transitrouter.Context
	Render            maprender.Settings
	SerializationFile string
}

// LoadBatch parses root's base_requests, render_settings,
// routing_settings, and serialization_settings sections into a Batch
// ready for make_base or process_requests. stat_requests is left
// untouched; call ProcessStatRequests separately once a Router (if any)
// has been built over the resulting catalogue.
func LoadBatch(root jsontree.Value) (Batch, error) {
	cat := catalogue.New()
	if err := ApplyBaseRequests(cat, root); err != nil {
		return Batch{}, err
	}

	render, err := ParseRenderSettings(root)
	if err != nil {
		return Batch{}, err
	}
	routing, err := ParseRoutingSettings(root)
	if err != nil {
		return Batch{}, err
	}
	file, err := ParseSerializationSettings(root)
	if err != nil {
		return Batch{}, err
	}

	return Batch{
		Catalogue:         cat,
		Routing:           routing,
		Render:            render,
		SerializationFile: file,
	}, nil
}

// Answer runs stat_requests against an already-assembled Environment
// (a catalogue plus, typically, a Router built over it and the batch's
// render settings) and marshals the responses to JSON text, matching
// the process_requests mode's stdout/output-file contract.
func Answer(env Environment, root jsontree.Value) ([]byte, error) {
	resp, err := ProcessStatRequests(env, root)
	if err != nil {
		return nil, err
	}
	return jsontree.Marshal(resp)
}
