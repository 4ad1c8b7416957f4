package domain

import "time"

// --- RAISONS (enum fermé) ---
// Les raisons arrivent en string depuis le transport et sont validées ICI,
// à la frontière. Rien de dynamique ne pénètre plus loin dans le moteur.

type ReportReason string

const (
	ReasonSpam           ReportReason = "spam"
	ReasonHarassment     ReportReason = "harassment"
	ReasonNudity         ReportReason = "nudity"
	ReasonViolence       ReportReason = "violence"
	ReasonMisinformation ReportReason = "misinformation"
	ReasonOther          ReportReason = "other"
)

func ParseReportReason(s string) (ReportReason, error) {
	switch r := ReportReason(s); r {
	case ReasonSpam, ReasonHarassment, ReasonNudity, ReasonViolence, ReasonMisinformation, ReasonOther:
		return r, nil
	}
	return "", ErrInvalidReportReason
}

// --- STATUTS ---

type ReportStatus string

const (
	ReportPending    ReportStatus = "pending"
	ReportReviewedOk ReportStatus = "reviewed_ok"
	ReportRemoved    ReportStatus = "removed"
)

type ReviewAction string

const (
	ReviewApprove ReviewAction = "approve"
	ReviewRemove  ReviewAction = "remove"
)

func ParseReviewAction(s string) (ReviewAction, error) {
	switch a := ReviewAction(s); a {
	case ReviewApprove, ReviewRemove:
		return a, nil
	}
	return "", ErrInvalidReviewAction
}

// Report : clé composite (PostID, ReporterID) — un compte ne signale un post
// qu'une seule fois. Créé à la soumission, muté uniquement par la revue admin,
// jamais supprimé tant que le post existe.
type Report struct {
	PostID     string
	ReporterID string
	Reason     ReportReason
	Status     ReportStatus
	ReviewerID *string
	ReviewedAt *time.Time
	CreatedAt  time.Time
}

func NewReport(postID, reporterID string, reason ReportReason) *Report {
	return &Report{
		PostID:     postID,
		ReporterID: reporterID,
		Reason:     reason,
		Status:     ReportPending,
		CreatedAt:  time.Now().UTC(),
	}
}

// Review applique la décision terminale d'un admin.
func (r *Report) Review(action ReviewAction, reviewerID string, at time.Time) {
	if action == ReviewRemove {
		r.Status = ReportRemoved
	} else {
		r.Status = ReportReviewedOk
	}
	r.ReviewerID = &reviewerID
	r.ReviewedAt = &at
}
