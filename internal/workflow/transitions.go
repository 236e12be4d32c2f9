// Package workflow holds the declarative state tables the engine consults.
// Any transition not listed here is rejected; services never special-case
// individual transitions.
package workflow

import "github.com/edupath/placement-api/internal/models"

// LeadTransitions maps each lead status to its allowed destinations.
// converted and lost are terminal.
var LeadTransitions = map[models.LeadStatus][]models.LeadStatus{
	models.LeadStatusNew:       {models.LeadStatusHot, models.LeadStatusCold, models.LeadStatusConverted, models.LeadStatusLost},
	models.LeadStatusHot:       {models.LeadStatusConverted, models.LeadStatusLost, models.LeadStatusCold},
	models.LeadStatusCold:      {models.LeadStatusHot, models.LeadStatusConverted, models.LeadStatusLost},
	models.LeadStatusConverted: {},
	models.LeadStatusLost:      {},
}

// StudentTransitions maps each student status to its allowed destinations.
var StudentTransitions = map[models.StudentStatus][]models.StudentStatus{
	models.StudentStatusPendingContract:  {models.StudentStatusContractSigned, models.StudentStatusCancelled},
	models.StudentStatusContractSigned:   {models.StudentStatusActiveProfile, models.StudentStatusCancelled},
	models.StudentStatusActiveProfile:    {models.StudentStatusSubmittedToAdmin, models.StudentStatusCancelled},
	models.StudentStatusSubmittedToAdmin: {models.StudentStatusReturnedByAdmin, models.StudentStatusSubmittedToUni},
	models.StudentStatusReturnedByAdmin:  {models.StudentStatusSubmittedToAdmin, models.StudentStatusCancelled},
	models.StudentStatusSubmittedToUni:   {models.StudentStatusReturnedBySchool, models.StudentStatusOfferReceived, models.StudentStatusCancelled},
	models.StudentStatusReturnedBySchool: {models.StudentStatusSubmittedToUni, models.StudentStatusCancelled},
	models.StudentStatusOfferReceived:    {models.StudentStatusOfferReleased},
	models.StudentStatusOfferReleased:    {models.StudentStatusCompleted},
	models.StudentStatusCompleted:        {},
	models.StudentStatusCancelled:        {},
}

// ApplicationTransitions maps each university-application status to its
// allowed destinations. accepted and rejected are terminal.
var ApplicationTransitions = map[models.ApplicationStatus][]models.ApplicationStatus{
	models.ApplicationStatusDraft:            {models.ApplicationStatusPendingAdmin},
	models.ApplicationStatusPendingAdmin:     {models.ApplicationStatusSubmittedToUni, models.ApplicationStatusRejected},
	models.ApplicationStatusSubmittedToUni:   {models.ApplicationStatusAccepted, models.ApplicationStatusReturnedBySchool},
	models.ApplicationStatusReturnedBySchool: {models.ApplicationStatusSubmittedToUni},
	models.ApplicationStatusAccepted:         {},
	models.ApplicationStatusRejected:         {},
}

// studentSteps maps status to the derived progress step shown to clients.
var studentSteps = map[models.StudentStatus]int{
	models.StudentStatusCancelled:        0,
	models.StudentStatusPendingContract:  1,
	models.StudentStatusContractSigned:   2,
	models.StudentStatusActiveProfile:    2,
	models.StudentStatusSubmittedToAdmin: 3,
	models.StudentStatusReturnedByAdmin:  3,
	models.StudentStatusSubmittedToUni:   3,
	models.StudentStatusReturnedBySchool: 3,
	models.StudentStatusOfferReceived:    4,
	models.StudentStatusOfferReleased:    5,
	models.StudentStatusCompleted:        5,
}

// CanTransitionLead reports whether a lead may move from current to target.
func CanTransitionLead(current, target models.LeadStatus) bool {
	return contains(LeadTransitions[current], target)
}

// CanTransitionStudent reports whether a student may move from current to target.
func CanTransitionStudent(current, target models.StudentStatus) bool {
	return contains(StudentTransitions[current], target)
}

// CanTransitionApplication reports whether an application may move from
// current to target.
func CanTransitionApplication(current, target models.ApplicationStatus) bool {
	return contains(ApplicationTransitions[current], target)
}

// StepForStatus returns the progress step for a student status.
func StepForStatus(status models.StudentStatus) int {
	return studentSteps[status]
}

func contains[T comparable](allowed []T, target T) bool {
	for _, s := range allowed {
		if s == target {
			return true
		}
	}
	return false
}
