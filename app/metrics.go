package app

import (
	"time"

	"github.com/artpar/contentgate/ports"
)

// nopMetrics discards measurements when no collector is wired.
type nopMetrics struct{}

func (nopMetrics) ObserveResolve(string, time.Duration)        {}
func (nopMetrics) ModuleFallback(string)                       {}
func (nopMetrics) BlockLookup(string)                          {}
func (nopMetrics) RecordParseError()                           {}
func (nopMetrics) ObserveSync(string, time.Duration, int, int) {}

var _ ports.Metrics = nopMetrics{}
