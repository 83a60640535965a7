// Package runs formats pipeline run history for display: run durations,
// relative start times and who a run is attributed to.
//
// Every function here is lenient. Missing or unparseable timestamps produce
// a placeholder rather than an error so that history views always render.
package runs
