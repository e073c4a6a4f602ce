// SPDX-License-Identifier: MIT
package control

import "spettro/internal/spectrum"

// Event is the closed set of inputs the Controller dispatches. Each
// concrete type is a plain value produced by the keymap (or any other
// input source — mouse, remote control) and consumed by Dispatch.
type Event interface{ isEvent() }

type PanTime struct{ DeltaSeconds float64 }
type PanFreq struct{ Factor float64 }
type ZoomTime struct{ Factor float64 }
type ZoomFreq struct{ Factor float64 }
type SetFFTFreq struct{ FFTFreq float64 }
type SetWindow struct{ Window spectrum.WindowFunc }
type SetDynRange struct{ DynRangeDB float64 }
type SetBarMarker struct {
	Left bool
	Time float64
}
type SetBeatsPerBar struct{ N int }
type ToggleOverlay struct{ Kind OverlayKind }
type ToggleAxis struct{ Kind AxisKind }
type ToggleFullscreen struct{}
type PlaybackEvent struct{ Action PlaybackAction }
type QuitEvent struct{}

func (PanTime) isEvent()           {}
func (PanFreq) isEvent()           {}
func (ZoomTime) isEvent()          {}
func (ZoomFreq) isEvent()          {}
func (SetFFTFreq) isEvent()        {}
func (SetWindow) isEvent()         {}
func (SetDynRange) isEvent()       {}
func (SetBarMarker) isEvent()      {}
func (SetBeatsPerBar) isEvent()    {}
func (ToggleOverlay) isEvent()     {}
func (ToggleAxis) isEvent()        {}
func (ToggleFullscreen) isEvent()  {}
func (PlaybackEvent) isEvent()     {}
func (QuitEvent) isEvent()         {}
