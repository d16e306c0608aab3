// Package models holds the tenant-partitioned domain entities of the
// matching core. Ownership: pkg/database exclusively persists these;
// everything else (feature vectors, explanations in flight) is ephemeral
// and lives only in pkg/matching until it is written back through a
// repository.
package models

import (
	"encoding/json"
	"time"
)

// VersionedJSON models a schema-versioned, opaque JSON payload, used
// for explanation/metadata/piiSummary instead of relying on structural
// inheritance.
type VersionedJSON struct {
	SchemaVersion int            `json:"schemaVersion"`
	Data          map[string]any `json:"data"`
}

// MarshalForStorage renders canonical JSON for a repository write.
func (v VersionedJSON) MarshalForStorage() ([]byte, error) {
	if v.Data == nil {
		v.Data = map[string]any{}
	}
	return json.Marshal(v)
}

// ParseVersionedJSON parses a repository-read byte slice back into a
// VersionedJSON. Empty input yields an empty payload at schema version 1.
func ParseVersionedJSON(raw []byte) (VersionedJSON, error) {
	if len(raw) == 0 {
		return VersionedJSON{SchemaVersion: 1, Data: map[string]any{}}, nil
	}
	var v VersionedJSON
	if err := json.Unmarshal(raw, &v); err != nil {
		return VersionedJSON{}, err
	}
	if v.Data == nil {
		v.Data = map[string]any{}
	}
	return v, nil
}

// Availability is the consultant's current bench status.
type Availability string

const (
	AvailabilityAvailable    Availability = "AVAILABLE"
	AvailabilityInterviewing Availability = "INTERVIEWING"
	AvailabilityAssigned     Availability = "ASSIGNED"
	AvailabilityUnavailable  Availability = "UNAVAILABLE"
)

// RequirementStatus is the lifecycle state of a client requirement.
type RequirementStatus string

const (
	RequirementOpen       RequirementStatus = "OPEN"
	RequirementInProgress RequirementStatus = "IN_PROGRESS"
	RequirementOnHold     RequirementStatus = "ON_HOLD"
	RequirementClosed     RequirementStatus = "CLOSED"
)

// IngestionStatus tracks DocumentMetadata processing progress.
type IngestionStatus string

const (
	IngestionPending    IngestionStatus = "PENDING"
	IngestionProcessing IngestionStatus = "PROCESSING"
	IngestionComplete   IngestionStatus = "COMPLETE"
	IngestionFailed     IngestionStatus = "FAILED"
)

// PIIStatus summarizes whether a document's text contained PII.
type PIIStatus string

const (
	PIIUnknown PIIStatus = "UNKNOWN"
	PIIClean   PIIStatus = "CLEAN"
	PIIFlagged PIIStatus = "FLAGGED"
)

// RequirementIngestionStatus tracks the requirement text ingestion record.
type RequirementIngestionStatus string

const (
	ReqIngestionPending   RequirementIngestionStatus = "PENDING"
	ReqIngestionProcessed RequirementIngestionStatus = "PROCESSED"
	ReqIngestionFailed    RequirementIngestionStatus = "FAILED"
)

// EntityType distinguishes the two kinds of search/matching subjects.
type EntityType string

const (
	EntityConsultant  EntityType = "CONSULTANT"
	EntityRequirement EntityType = "REQUIREMENT"
)

// MatchStatus is the lifecycle state of a Match row.
type MatchStatus string

const (
	MatchReview      MatchStatus = "REVIEW"
	MatchShortlisted MatchStatus = "SHORTLISTED"
	MatchSubmitted   MatchStatus = "SUBMITTED"
	MatchRejected    MatchStatus = "REJECTED"
	MatchHired       MatchStatus = "HIRED"
)

// FeedbackOutcome is the result of a human reviewing a Match.
type FeedbackOutcome string

const (
	FeedbackPositive FeedbackOutcome = "POSITIVE"
	FeedbackNegative FeedbackOutcome = "NEGATIVE"
	FeedbackNeutral  FeedbackOutcome = "NEUTRAL"
	FeedbackHired    FeedbackOutcome = "HIRED"
	FeedbackRejected FeedbackOutcome = "REJECTED"
)

// SubmissionStatus mirrors the external ATS submission pipeline states
// referenced by the evaluation relevance formula.
type SubmissionStatus string

const (
	SubmissionSubmitted SubmissionStatus = "SUBMITTED"
	SubmissionInterview SubmissionStatus = "INTERVIEW"
	SubmissionOffer     SubmissionStatus = "OFFER"
	SubmissionHired     SubmissionStatus = "HIRED"
)

// IdentityKind is the attribute type an IdentitySignature normalises.
type IdentityKind string

const (
	IdentityEmail   IdentityKind = "EMAIL"
	IdentityPhone   IdentityKind = "PHONE"
	IdentityNameLoc IdentityKind = "NAME_LOC"
)

// OntologyVersion is a published snapshot of the skill taxonomy.
type OntologyVersion struct {
	ID          string
	Version     string
	Source      string
	IsActive    bool
	PublishedAt time.Time
}

// OntologyNode is a canonical skill node within a versioned ontology.
type OntologyNode struct {
	ID            string
	VersionID     string
	CanonicalName string
	Code          *string
	Category      *string
	Tags          []string
}

// AliasMatchType classifies how an OntologyAlias was derived.
type AliasMatchType string

const (
	AliasExact    AliasMatchType = "EXACT"
	AliasFuzzy    AliasMatchType = "FUZZY"
	AliasAcronym  AliasMatchType = "ACRONYM"
	AliasVariant  AliasMatchType = "VARIANT"
)

// OntologyAlias is a lowercased surface form mapped to a node.
type OntologyAlias struct {
	ID         string
	NodeID     string
	Value      string
	Locale     *string
	MatchType  AliasMatchType
	Confidence *float64
}

// Skill is a global canonical skill, optionally linked to the active
// ontology version.
type Skill struct {
	ID             string
	Name           string
	Category       *string
	OntologyNodeID *string
}

// Consultant is a tenant-scoped bench resource.
type Consultant struct {
	ID           string
	TenantID     string
	FirstName    string
	LastName     string
	Email        *string
	Phone        *string
	Location     *string
	Availability Availability
	Rate         *float64
	Experience   *int
	Summary      *string
	UpdatedAt    time.Time
}

// ConsultantSkill is a weighted edge between a consultant and a skill.
type ConsultantSkill struct {
	ConsultantID string
	SkillID      string
	Weight       int
}

// IdentitySignature is a normalised attribute used for dedupe.
type IdentitySignature struct {
	ID           string
	ConsultantID string
	TenantID     string
	Kind         IdentityKind
	Value        string
}

// IdentityCluster is the transitive closure of consultants that share a
// signature.
type IdentityCluster struct {
	Members []string
	Status  string
}

// Requirement is a tenant-scoped client job requirement.
type Requirement struct {
	ID          string
	TenantID    string
	Title       string
	ClientName  string
	Description string
	Location    *string
	Type        *string
	Status      RequirementStatus
	Source      string
	MinRate     *float64
	MaxRate     *float64
	PostedAt    time.Time
	ClosesAt    *time.Time
}

// RequirementSkill is a weighted edge between a requirement and a skill.
type RequirementSkill struct {
	RequirementID string
	SkillID       string
	Weight        int
}

// ResumeCandidate is the extracted header of a resume, scraped by the
// ingestion worker before PII redaction.
type ResumeCandidate struct {
	FirstName string   `json:"firstName"`
	LastName  string   `json:"lastName"`
	FullName  string   `json:"fullName"`
	Emails    []string `json:"emails"`
	Phones    []string `json:"phones"`
	Location  *string  `json:"location,omitempty"`
	Headline  *string  `json:"headline,omitempty"`
}

// Resume is the normalised ingestion payload for one consultant document,
// upserted by `(tenantId, consultantId, fileKey)`.
type Resume struct {
	ID              string
	TenantID        string
	ConsultantID    string
	DocumentID      string
	FileKey         string
	MatchedSkillIDs []string
	Skills          []string
	Candidate       ResumeCandidate
	Summary         *string
	UpdatedAt       time.Time
}

// DocumentKind classifies a DocumentAsset.
type DocumentKind string

const (
	DocumentResume               DocumentKind = "RESUME"
	DocumentRequirementAttachment DocumentKind = "REQUIREMENT_ATTACHMENT"
)

// DocumentAsset is an uploaded binary object reference.
type DocumentAsset struct {
	ID            string
	TenantID      string
	Kind          DocumentKind
	FileName      string
	ContentType   string
	SizeBytes     int64
	StorageKey    string
	ConsultantID  *string
	RequirementID *string
	CreatedAt     time.Time
}

// DocumentMetadata carries ingestion/PII processing state for a document.
type DocumentMetadata struct {
	DocumentID         string
	TenantID           string
	SHA256             string
	SHA1               *string
	MD5                *string
	IngestionStatus    IngestionStatus
	PIIStatus          PIIStatus
	PIISummary         VersionedJSON
	PageCount          *int
	TextByteSize       *int
	IngestionLatencyMs *int
	ExtractedAt        *time.Time
	LastRedactionAt    *time.Time
}

// RequirementIngestion is the raw-text ingestion record for requirement
// adapters (email/manual upload).
type RequirementIngestion struct {
	ID          string
	TenantID    string
	Source      string
	RawContent  string
	ContentHash string
	ParsedData  VersionedJSON
	Status      RequirementIngestionStatus
	RetryCount  int
	ProcessedAt *time.Time
	LatencyMs   *int
}

// SearchDocument is the per-entity hybrid index row.
type SearchDocument struct {
	TenantID     string
	EntityType   EntityType
	EntityID     string
	Content      string
	Metadata     VersionedJSON
	SearchVector string // tokenized lexical representation fed to the index
	Embedding    []float32
	UpdatedAt    time.Time
}

// Match is a scored consultant↔requirement pairing.
type Match struct {
	ID            string
	TenantID      string
	ConsultantID  string
	RequirementID string
	Score         float64
	Status        MatchStatus
	Explanation   VersionedJSON
	Feedback      VersionedJSON
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// MatchFeatureSnapshot is immutable per-scoring-run history.
type MatchFeatureSnapshot struct {
	ID           string
	MatchID      string
	ModelVersion string
	Features     VersionedJSON
	Explanation  VersionedJSON
	CreatedAt    time.Time
}

// MatchFeedback is one human (or automated) review event on a Match.
type MatchFeedback struct {
	ID        string
	MatchID   string
	TenantID  string
	Outcome   FeedbackOutcome
	Rating    *int
	Reason    *string
	Metadata  VersionedJSON
	CreatedAt time.Time
}

// AuditLog is one hash-chained entry in a tenant's append-only log.
type AuditLog struct {
	ID         string
	TenantID   string
	CreatedAt  time.Time
	UserID     *string
	ActorRole  *string
	Action     string
	EntityType string
	EntityID   *string
	Payload    VersionedJSON
	ResultCode string
	IP         *string
	UA         *string
	PrevHash   *string
	Hash       string
}

// PIIType classifies a vaulted token.
type PIIType string

const (
	PIIEmail  PIIType = "EMAIL"
	PIIPhone  PIIType = "PHONE"
	PIISSN    PIIType = "SSN"
	PIIPerson PIIType = "PERSON"
)

// PIIVaultEntry is an encrypted original behind a substituted token.
type PIIVaultEntry struct {
	Token      string
	TenantID   string
	Type       PIIType
	Ciphertext []byte
	CreatedAt  time.Time
}

// AnalyticsSnapshot is one persisted evaluation run.
type AnalyticsSnapshot struct {
	ID            string
	TenantID      string
	WindowStart   time.Time
	WindowEnd     time.Time
	Metrics       VersionedJSON
	SampleSize    int
	Coverage      float64
	BaselineDelta *float64
	ReviewSummary *string
	CreatedAt     time.Time
}
