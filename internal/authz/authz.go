// Package authz centralizes the ownership and role checks behind every
// coordination operation. Services call these predicates before mutating;
// each returns nil or a permission fault naming what was missing.
package authz

import (
	"github.com/Edw01/Taller-integro/internal/faults"
	"github.com/Edw01/Taller-integro/pkg/models"
)

// CanManageBeneficiaries allows requesters and admins to run the registry.
func CanManageBeneficiaries(u *models.User) error {
	if u.IsRequester() || u.IsAdmin() {
		return nil
	}
	return faults.Permission("only requesters and admins manage beneficiaries")
}

// CanCreateRequest allows requesters and admins to open help requests.
func CanCreateRequest(u *models.User) error {
	if u.IsRequester() || u.IsAdmin() {
		return nil
	}
	return faults.Permission("only requesters and admins create requests")
}

// CanEditRequest allows the creator, or an admin, to edit or delete a request.
func CanEditRequest(u *models.User, r *models.Request) error {
	if u.IsAdmin() || r.CreatorID == u.ID {
		return nil
	}
	return faults.Permission("only the request creator can modify it")
}

// CanApply allows volunteers, but never the request's own creator.
func CanApply(u *models.User, r *models.Request) error {
	if !u.IsVolunteer() {
		return faults.Permission("only volunteers apply to requests")
	}
	if r.CreatorID == u.ID {
		return faults.Permission("creators cannot apply to their own request")
	}
	return nil
}

// CanRespondToApplications allows the creator, or an admin, to accept or
// reject applications on a request.
func CanRespondToApplications(u *models.User, r *models.Request) error {
	if u.IsAdmin() || r.CreatorID == u.ID {
		return nil
	}
	return faults.Permission("only the request creator responds to applications")
}

// CanFinalize allows the creator or the assigned volunteer to close out a
// request, plus admins.
func CanFinalize(u *models.User, r *models.Request) error {
	if u.IsAdmin() || r.IsParticipant(u.ID) {
		return nil
	}
	return faults.Permission("only participants finalize a request")
}

// CanReset allows the creator or an admin to return a request to pending.
func CanReset(u *models.User, r *models.Request) error {
	if u.IsAdmin() || r.CreatorID == u.ID {
		return nil
	}
	return faults.Permission("only the request creator or an admin resets it")
}

// CanChat allows the creator and the assigned volunteer to message on a
// request, plus admins.
func CanChat(u *models.User, r *models.Request) error {
	if u.IsAdmin() || r.IsParticipant(u.ID) {
		return nil
	}
	return faults.Permission("only participants message on a request")
}

// CanViewReports restricts the aggregate reports to admins.
func CanViewReports(u *models.User) error {
	if u.IsAdmin() {
		return nil
	}
	return faults.Permission("reports are admin only")
}
