// Package export writes compositions in machine-readable form. Beat
// positions are exact rationals rendered as strings ("3/2").
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/cbegin/doremi-go/internal/concrete"
)

type Format string

const (
	JSON    Format = "json"
	MsgPack Format = "msgpack"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case JSON, MsgPack:
		return f, nil
	}
	return "", fmt.Errorf("unknown export format %q (want json or msgpack)", s)
}

type Document struct {
	Scale       string   `json:"scale" msgpack:"scale"`
	Tonic       int      `json:"tonic" msgpack:"tonic"`
	BPM         float64  `json:"bpm" msgpack:"bpm"`
	Beats       string   `json:"beats" msgpack:"beats"`
	Seconds     float64  `json:"seconds" msgpack:"seconds"`
	Definitions []string `json:"definitions,omitempty" msgpack:"definitions,omitempty"`
	Comments    []string `json:"comments,omitempty" msgpack:"comments,omitempty"`
	Notes       []Note   `json:"notes" msgpack:"notes"`
}

type Note struct {
	Word      string  `json:"word" msgpack:"word"`
	Start     string  `json:"start" msgpack:"start"`
	Stop      string  `json:"stop" msgpack:"stop"`
	StartSec  float64 `json:"start_sec" msgpack:"start_sec"`
	StopSec   float64 `json:"stop_sec" msgpack:"stop_sec"`
	Pitch     float64 `json:"pitch" msgpack:"pitch"`
	Key       *uint8  `json:"key,omitempty" msgpack:"key,omitempty"` // nil when detuned
	Frequency float64 `json:"frequency" msgpack:"frequency"`
	Velocity  uint8   `json:"velocity" msgpack:"velocity"`
	Line      int     `json:"line,omitempty" msgpack:"line,omitempty"`
	Column    int     `json:"column,omitempty" msgpack:"column,omitempty"`
}

// NewDocument flattens comp.
func NewDocument(comp *concrete.Composition) *Document {
	doc := &Document{
		Scale:   comp.Scale.Name,
		Tonic:   comp.Scale.Tonic,
		BPM:     comp.BPM,
		Seconds: comp.Duration(),
		Notes:   make([]Note, 0, len(comp.Notes)),
	}
	if comp.Beats != nil {
		doc.Beats = comp.Beats.RatString()
	}
	if comp.Scope != nil {
		doc.Definitions = comp.Scope.Names()
	}
	if comp.Collection != nil {
		for _, c := range comp.Collection.Comments {
			doc.Comments = append(doc.Comments, c.Text)
		}
	}
	for _, n := range comp.Notes {
		rec := Note{
			Word:      n.Word.Name,
			Start:     n.StartBeat.RatString(),
			Stop:      n.StopBeat.RatString(),
			StartSec:  n.Start,
			StopSec:   n.Stop,
			Pitch:     n.Pitch,
			Frequency: n.Frequency,
			Velocity:  n.Velocity,
			Line:      n.Word.Pos.Line,
			Column:    n.Word.Pos.Column,
		}
		if key, err := n.MIDI(); err == nil {
			rec.Key = &key
		}
		doc.Notes = append(doc.Notes, rec)
	}
	return doc
}

func Encode(w io.Writer, format Format, comp *concrete.Composition) error {
	doc := NewDocument(comp)
	switch format {
	case JSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	case MsgPack:
		return msgpack.NewEncoder(w).Encode(doc)
	}
	return fmt.Errorf("unknown export format %q", format)
}

func Decode(r io.Reader, format Format) (*Document, error) {
	var doc Document
	var err error
	switch format {
	case JSON:
		err = json.NewDecoder(r).Decode(&doc)
	case MsgPack:
		err = msgpack.NewDecoder(r).Decode(&doc)
	default:
		return nil, fmt.Errorf("unknown export format %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", format, err)
	}
	return &doc, nil
}
