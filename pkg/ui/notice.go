package ui

import "fmt"

type NoticeKind string

const (
	KindInfo    NoticeKind = "info"
	KindNotice  NoticeKind = "notice"
	KindSuccess NoticeKind = "success"
	KindWarning NoticeKind = "warning"
	KindError   NoticeKind = "error"
)

const (
	MsgNoClaimData           = "No claim data found."
	MsgInvalidClaimData      = "Invalid claim data passed in URL"
	MsgAlreadyClaimed        = "Permit already claimed"
	MsgNoWallet              = "Please use a web3 enabled browser to collect this reward."
	MsgConnectWallet         = "Please connect your wallet to continue."
	MsgInsufficientAllowance = "Error: Not enough allowance to claim."
	MsgInsufficientFunds     = "Error: Not enough funds on treasury to claim."
	MsgClaimComplete         = "Claim Complete."
	MsgNonceInvalidated      = "Nonce invalidated!"
)

func MsgSwitchNetwork(chainID uint64) string {
	return fmt.Sprintf("Please switch to network %d", chainID)
}

func MsgError(reason string) string {
	if reason == "" {
		reason = "Unknown error"
	}
	return "Error: " + reason
}

type Notice struct {
	Kind    NoticeKind `json:"kind" yaml:"kind"`
	Message string     `json:"message" yaml:"message"`
}

// Notifier shows transient notices to the user.
type Notifier interface {
	Notify(n Notice)
}

type NotifierFunc func(n Notice)

func (f NotifierFunc) Notify(n Notice) { f(n) }
