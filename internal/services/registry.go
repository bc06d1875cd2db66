// Package services wires the analysis engines into a single registry the
// transports share.
package services

import (
	"github.com/fyrsmithlabs/pillard/internal/briefing"
	"github.com/fyrsmithlabs/pillard/internal/correlation"
	"github.com/fyrsmithlabs/pillard/internal/insight"
	"github.com/fyrsmithlabs/pillard/internal/intelligence"
	"github.com/fyrsmithlabs/pillard/internal/predict"
	"github.com/fyrsmithlabs/pillard/internal/recommend"
	"github.com/fyrsmithlabs/pillard/internal/store"
)

// Registry provides access to all pillard services.
// Use accessor methods to retrieve individual services.
type Registry interface {
	Correlations() *correlation.Engine
	Insights() *insight.Generator
	Recommendations() *recommend.Engine
	Predictions() *predict.Service
	Briefings() *briefing.Compiler
	Intelligence() *intelligence.Orchestrator
	Store() *store.Store
}

// Options configures the registry with service instances.
type Options struct {
	Correlations    *correlation.Engine
	Insights        *insight.Generator
	Recommendations *recommend.Engine
	Predictions     *predict.Service
	Briefings       *briefing.Compiler
	Intelligence    *intelligence.Orchestrator
	Store           *store.Store
}

type registry struct {
	correlations    *correlation.Engine
	insights        *insight.Generator
	recommendations *recommend.Engine
	predictions     *predict.Service
	briefings       *briefing.Compiler
	intelligence    *intelligence.Orchestrator
	store           *store.Store
}

// NewRegistry creates a new service registry.
func NewRegistry(opts Options) Registry {
	return &registry{
		correlations:    opts.Correlations,
		insights:        opts.Insights,
		recommendations: opts.Recommendations,
		predictions:     opts.Predictions,
		briefings:       opts.Briefings,
		intelligence:    opts.Intelligence,
		store:           opts.Store,
	}
}

func (r *registry) Correlations() *correlation.Engine        { return r.correlations }
func (r *registry) Insights() *insight.Generator             { return r.insights }
func (r *registry) Recommendations() *recommend.Engine       { return r.recommendations }
func (r *registry) Predictions() *predict.Service            { return r.predictions }
func (r *registry) Briefings() *briefing.Compiler            { return r.briefings }
func (r *registry) Intelligence() *intelligence.Orchestrator { return r.intelligence }
func (r *registry) Store() *store.Store                      { return r.store }
