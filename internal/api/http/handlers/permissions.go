package handlers

import (
	"github.com/slugbotics/sluggo/internal/api/dto"
	"github.com/slugbotics/sluggo/internal/domain"
)

// canMutateTicket reports whether the member may alter a ticket's content
// or placement. Any approved member may create tickets and move them
// between statuses; everything else belongs to the ticket's owner and the
// team's admins.
func canMutateTicket(member *domain.Member, ticket *domain.Ticket) bool {
	return member.IsAdmin() || ticket.OwnerID == member.UserID
}

// statusOnlyChange reports whether an update touches nothing but the
// ticket's status.
func statusOnlyChange(req dto.UpdateTicketRequest) bool {
	return req.Title == nil && req.Description == nil && req.AssignedUserID == nil && req.TagIDs == nil
}
