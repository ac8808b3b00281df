package policies

import (
	"fmt"

	"orgchart-backend/internal/domain"
)

var (
	ErrOnlyOwnerCanInitiate     = fmt.Errorf("%w: only the organization owner can initiate an ownership transfer", domain.ErrForbidden)
	ErrOnlyRecipientCanRespond  = fmt.Errorf("%w: only the recipient can accept or reject this transfer", domain.ErrForbidden)
	ErrOnlyInitiatorCanCancel   = fmt.Errorf("%w: only the initiator can cancel this transfer", domain.ErrForbidden)
	ErrNotOrganizationMember    = fmt.Errorf("%w: user is not a member of this organization", domain.ErrForbidden)
	ErrRecipientNotMember       = fmt.Errorf("%w: recipient is not a member of this organization", domain.ErrInvalidRecipient)
	ErrRecipientAlreadyOwner    = fmt.Errorf("%w: recipient is already the owner", domain.ErrInvalidRecipient)
	ErrCannotTransferToYourself = fmt.Errorf("%w: cannot transfer ownership to yourself", domain.ErrInvalidRecipient)
)
