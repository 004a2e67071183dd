package email

const (
	subjectCrisisAlertFmt = "Dispatch request: %s"
	subjectEscalationFmt  = "ESCALATION level %d: %s"
	subjectCrisisClosed   = "Crisis resolved, unit released"
)
