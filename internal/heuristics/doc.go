// Package heuristics provides the text filters and transforms applied to
// every extracted record before it is queued for writing.
//
// Each record stream (topic titles and message bodies) has its own Pipeline
// made of an ordered filter stage followed by an ordered transform stage.
// A record is kept only if every filter accepts it; kept records then pass
// through every transform in order.
//
// Stages are looked up by name from a registry so the stage lists can be set
// in the configuration file:
//
//	heuristics:
//	  messages:
//	    filters: [reject-10-digits]
//	    transforms: [trim, collapse-blank-lines, append-separator]
//	  topics:
//	    transforms: [trim, append-separator]
//
// A Set is fixed for the lifetime of a run.
package heuristics
