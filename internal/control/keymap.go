// SPDX-License-Identifier: MIT
package control

// Key names an input key independent of any particular windowing
// toolkit's key-code constants.
type Key string

const (
	KeySpace     Key = "space"
	KeyUp        Key = "up"
	KeyDown      Key = "down"
	KeyLeft      Key = "left"
	KeyRight     Key = "right"
	KeyPlus      Key = "plus"
	KeyMinus     Key = "minus"
	KeyX         Key = "x"
	KeyY         Key = "y"
	KeyP         Key = "p"
	KeyS         Key = "s"
	KeyG         Key = "g"
	KeyA         Key = "a"
	KeyCapitalA  Key = "A"
	KeyF         Key = "f"
	KeyLeftBrk   Key = "["
	KeyRightBrk  Key = "]"
	KeyB         Key = "b"
	KeyEnter     Key = "enter"
	KeyEscape    Key = "escape"
)

// panTimeStep, panFreqRatio, zoomFactor and axisZoom are the default
// per-keypress increments; the
// Controller's zoom/pan methods take explicit factors/deltas so a
// caller (e.g. a held-key repeat) can scale them.
const (
	panTimeStep  = 1.0 // seconds
	panFreqRatio = 1.05
	zoomFactor   = 2.0
	axisZoom     = 1.5
)

// Translate maps one keypress to the Event it produces, following the
// modifier-independent mapping documented for the key/mouse surface:
// space toggles play/pause/replay, arrows pan, x/y zoom a single axis.
// +/- return only the time-axis half of their two-axis zoom;
// BothAxisZoom supplies both events.
func Translate(k Key) (Event, bool) {
	switch k {
	case KeySpace:
		return PlaybackEvent{Action: PlaybackToggle}, true
	case KeyEscape:
		return QuitEvent{}, true
	case KeyUp:
		return PanFreq{Factor: panFreqRatio}, true
	case KeyDown:
		return PanFreq{Factor: 1 / panFreqRatio}, true
	case KeyLeft:
		return PanTime{DeltaSeconds: -panTimeStep}, true
	case KeyRight:
		return PanTime{DeltaSeconds: panTimeStep}, true
	case KeyPlus:
		return ZoomTime{Factor: zoomFactor}, true // callers also send ZoomFreq to zoom both axes
	case KeyMinus:
		return ZoomTime{Factor: 1 / zoomFactor}, true
	case KeyX:
		return ZoomTime{Factor: axisZoom}, true
	case KeyY:
		return ZoomFreq{Factor: axisZoom}, true
	case KeyP:
		return ToggleOverlay{Kind: OverlayPiano}, true
	case KeyS:
		return ToggleOverlay{Kind: OverlayStaff}, true
	case KeyG:
		return ToggleOverlay{Kind: OverlayGuitar}, true
	case KeyA:
		return ToggleAxis{Kind: AxisFreq}, true
	case KeyCapitalA:
		return ToggleAxis{Kind: AxisTime}, true
	case KeyF:
		return ToggleFullscreen{}, true
	case KeyLeftBrk:
		return SetBarMarker{Left: true}, true
	case KeyRightBrk:
		return SetBarMarker{Left: false}, true
	}
	return nil, false
}

// BothAxisZoom returns the pair of events that implement the '+'/'-'
// both-axis zoom mapping: time and frequency zoomed by the same factor.
func BothAxisZoom(factor float64) (ZoomTime, ZoomFreq) {
	return ZoomTime{Factor: factor}, ZoomFreq{Factor: factor}
}
