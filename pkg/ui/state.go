package ui

import "strconv"

const (
	AttrClaim          = "data-claim"
	AttrMakeClaim      = "data-make-claim"
	AttrDetailsVisible = "data-details-visible"
)

// MakeClaim is the state of the claim control.
type MakeClaim uint8

const (
	MakeClaimHidden MakeClaim = iota
	MakeClaimDisabled
	MakeClaimEnabled
	MakeClaimLoading
	MakeClaimError
)

func (m MakeClaim) String() string {
	switch m {
	case MakeClaimDisabled:
		return "disabled"
	case MakeClaimEnabled:
		return "ok"
	case MakeClaimLoading:
		return "loading"
	case MakeClaimError:
		return "error"
	default:
		return "hidden"
	}
}

// ClaimStatus describes whether the current permit can still be claimed.
type ClaimStatus uint8

const (
	ClaimUnknown ClaimStatus = iota
	ClaimOpen
	ClaimNone
)

func (c ClaimStatus) String() string {
	switch c {
	case ClaimOpen:
		return "ok"
	case ClaimNone:
		return "none"
	default:
		return ""
	}
}

// Control is the state of a secondary button such as invalidate.
type Control uint8

const (
	ControlHidden Control = iota
	ControlDisabled
	ControlEnabled
)

// State is the whole page state. The zero value is the initial state:
// controls hidden, details collapsed.
type State struct {
	Claim          ClaimStatus
	MakeClaim      MakeClaim
	Invalidate     Control
	DetailsVisible bool
}

// View is what a renderer needs; it is derived from State only.
type View struct {
	Attributes        map[string]string `json:"attributes" yaml:"attributes"`
	ClaimVisible      bool              `json:"claim_visible" yaml:"claim_visible"`
	ClaimEnabled      bool              `json:"claim_enabled" yaml:"claim_enabled"`
	InvalidateVisible bool              `json:"invalidate_visible" yaml:"invalidate_visible"`
	InvalidateEnabled bool              `json:"invalidate_enabled" yaml:"invalidate_enabled"`
}

func (s State) Render() View {
	attrs := map[string]string{
		AttrMakeClaim:      s.MakeClaim.String(),
		AttrDetailsVisible: strconv.FormatBool(s.DetailsVisible),
	}
	if s.Claim != ClaimUnknown {
		attrs[AttrClaim] = s.Claim.String()
	}

	claimVisible := s.Claim != ClaimNone &&
		s.MakeClaim != MakeClaimHidden && s.MakeClaim != MakeClaimError

	return View{
		Attributes:        attrs,
		ClaimVisible:      claimVisible,
		ClaimEnabled:      claimVisible && s.MakeClaim == MakeClaimEnabled,
		InvalidateVisible: s.Invalidate != ControlHidden,
		InvalidateEnabled: s.Invalidate == ControlEnabled,
	}
}

// Fail puts the page into the terminal error state.
func (s *State) Fail() {
	s.MakeClaim = MakeClaimError
	s.Invalidate = ControlHidden
}

// HideAll hides every control without marking an error.
func (s *State) HideAll() {
	s.MakeClaim = MakeClaimHidden
	s.Invalidate = ControlHidden
}

// Claimed marks the current permit as spent.
func (s *State) Claimed() {
	s.Claim = ClaimNone
	s.MakeClaim = MakeClaimHidden
	s.Invalidate = ControlHidden
}

func (s *State) ToggleDetails() {
	s.DetailsVisible = !s.DetailsVisible
}
