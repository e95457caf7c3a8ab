// Package cicp is the loudspeaker geometry service: it maps CICP layout indices to speaker
// geometries and channel labels, and geometries back to layout indices.
package cicp

import (
	"errors"
	"fmt"
	"slices"

	"github.com/mycophonic/mpegh3da"
)

// Generic marks a layout that is not described by a CICP index.
const Generic = -1

var (
	// ErrUnknownLayout is returned for CICP indices with no loudspeaker layout.
	ErrUnknownLayout = errors.New("cicp: unknown layout index")
	// ErrNotFound is returned when a geometry matches no CICP layout.
	ErrNotFound = errors.New("cicp: geometry matches no layout")
)

// Geometry returns the speakers of a CICP layout in channel order, the channel count and
// the number of LFE channels.
func Geometry(index int) ([]mpegh3da.Speaker, int, int, error) {
	lbls, ok := layouts[index]
	if !ok {
		return nil, 0, 0, fmt.Errorf("%w: %d", ErrUnknownLayout, index)
	}

	out := make([]mpegh3da.Speaker, len(lbls))
	for i, l := range lbls {
		out[i] = l.Speaker()
	}

	return out, len(out), mpegh3da.CountLFE(out), nil
}

// Labels returns the channel labels of a CICP layout in channel order.
func Labels(index int) ([]Label, error) {
	lbls, ok := layouts[index]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownLayout, index)
	}

	return slices.Clone(lbls), nil
}

// Name returns a short human name for a CICP layout.
func Name(index int) string {
	return layoutNames[index]
}

// Indices returns every supported CICP index in ascending order.
func Indices() []int {
	out := make([]int, 0, len(layouts))
	for idx := range layouts {
		out = append(out, idx)
	}

	slices.Sort(out)

	return out
}

// Index finds the CICP layout whose channels match geometry in the same order.
func Index(geometry []mpegh3da.Speaker) (int, error) {
	lbls, ok := LabelsOf(geometry)
	if !ok {
		return Generic, ErrNotFound
	}

	for _, idx := range Indices() {
		if slices.Equal(layouts[idx], lbls) {
			return idx, nil
		}
	}

	return Generic, ErrNotFound
}

// LabelsOf maps each speaker to a label. ok is false if any speaker has no label.
func LabelsOf(geometry []mpegh3da.Speaker) ([]Label, bool) {
	out := make([]Label, len(geometry))

	for i, s := range geometry {
		l, found := LabelOf(s)
		if !found {
			return nil, false
		}

		out[i] = l
	}

	return out, true
}
