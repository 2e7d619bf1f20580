package domain

import "github.com/google/uuid"

type UserID = uuid.UUID
type SessionID = uuid.UUID
type SampleID = uuid.UUID
type ReportID = uuid.UUID
