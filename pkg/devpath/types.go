// Package devpath is a typed client for the DevPath AI backend. All
// network traffic of the application funnels through Client so that
// authentication and error normalization happen in exactly one place.
package devpath

// RepoReport summarizes a single analyzed repository.
type RepoReport struct {
	Name      string   `json:"name"`
	Skills    []string `json:"skills"`
	AISummary string   `json:"ai_summary"`
}

// GeneratedProject is an AI-suggested project idea.
type GeneratedProject struct {
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	Features       []string `json:"features"`
	SuggestedStack []string `json:"suggested_stack"`
}

// SuggestedPath is an AI-suggested career direction.
type SuggestedPath struct {
	PathName        string   `json:"path_name"`
	Description     string   `json:"description"`
	SkillsToDevelop []string `json:"skills_to_develop"`
}

// FullReport is the complete analysis result for one GitHub profile
// snapshot. SkillConstellation is the sole input to the derived
// analysis flows.
type FullReport struct {
	SkillConstellation   []string           `json:"skill_constellation"`
	DeveloperArchetype   string             `json:"developer_archetype"`
	ProjectHubs          []RepoReport       `json:"project_hubs"`
	FlagshipProjects     []RepoReport       `json:"flagship_projects"`
	AICodeQualitySummary string             `json:"ai_code_quality_summary"`
	SuggestedPaths       []SuggestedPath    `json:"suggested_paths"`
	SuggestedProjects    []GeneratedProject `json:"suggested_projects"`
}

// ReportHistoryItem is a lightweight index entry for a server-persisted
// report. The server keeps at most the three most recent reports.
type ReportHistoryItem struct {
	ID        int    `json:"id"`
	CreatedAt string `json:"created_at"`
}

// CareerTrackRequest asks the backend for a personalized learning path.
type CareerTrackRequest struct {
	CurrentSkills []string `json:"current_skills"`
	TargetDomain  string   `json:"target_domain"`
}

// LearningStep is the first stage of a career track.
type LearningStep struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// CareerTrack is a generated learning path toward a target domain.
type CareerTrack struct {
	TargetDomain    string           `json:"target_domain"`
	LearningStep    LearningStep     `json:"learning_step"`
	BridgeProject   GeneratedProject `json:"bridge_project"`
	CapstoneProject GeneratedProject `json:"capstone_project"`
}

// MarketMatchRequest asks the backend to compare skills against a job
// profile.
type MarketMatchRequest struct {
	UserSkills []string `json:"user_skills"`
	JobTitle   string   `json:"job_title"`
}

// GapAnalysis is the market-match result.
type GapAnalysis struct {
	MatchingSkills   []string `json:"matching_skills"`
	MissingSkills    []string `json:"missing_skills"`
	SummaryParagraph string   `json:"summary_paragraph"`
}

// apiErrorBody is the structured error payload the backend returns.
// FastAPI-style endpoints use "detail"; others use "message".
type apiErrorBody struct {
	Detail  string `json:"detail"`
	Message string `json:"message"`
}

// tokenResponse is the OAuth callback exchange payload.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
}
