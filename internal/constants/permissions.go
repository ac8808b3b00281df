package constants

const (
	InitiateTransfer    = "initiate_transfer"
	ViewTransferHistory = "view_transfer_history"
)
