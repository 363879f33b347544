package commands

import (
	"go-dashboard/internal/models"
	"go-dashboard/pkg/objref"
)

const (
	CreateAlert           = "GDC.DASH/CMD.ALERT.CREATE"
	UpdateAlert           = "GDC.DASH/CMD.ALERT.UPDATE"
	RemoveAlerts          = "GDC.DASH/CMD.ALERTS.REMOVE"
	CreateScheduledEmail  = "GDC.DASH/CMD.SCHEDULED_EMAIL.CREATE"
	RemoveScheduledEmails = "GDC.DASH/CMD.SCHEDULED_EMAILS.REMOVE"
)

type CreateAutomationPayload struct {
	Automation models.Automation `json:"automation"`
}

type UpdateAutomationPayload struct {
	Automation models.Automation `json:"automation"`
}

type RemoveAutomationsPayload struct {
	Refs []objref.ObjRef `json:"refs"`
}

func CreateAlertCmd(alert models.Automation, correlationID ...string) Command {
	return newCommand(CreateAlert, CreateAutomationPayload{Automation: alert}, correlationID)
}

func UpdateAlertCmd(alert models.Automation, correlationID ...string) Command {
	return newCommand(UpdateAlert, UpdateAutomationPayload{Automation: alert}, correlationID)
}

func RemoveAlertsCmd(refs []objref.ObjRef, correlationID ...string) Command {
	return newCommand(RemoveAlerts, RemoveAutomationsPayload{Refs: refs}, correlationID)
}

func CreateScheduledEmailCmd(export models.Automation, correlationID ...string) Command {
	return newCommand(CreateScheduledEmail, CreateAutomationPayload{Automation: export}, correlationID)
}

func RemoveScheduledEmailsCmd(refs []objref.ObjRef, correlationID ...string) Command {
	return newCommand(RemoveScheduledEmails, RemoveAutomationsPayload{Refs: refs}, correlationID)
}
