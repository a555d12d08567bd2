package derived

// JobTitles is the fixed catalog of job titles the market-match
// analysis understands. The backend's prompt templates are tuned for
// these titles, so free-form input is rejected client-side.
var JobTitles = []string{
	"Data Engineer",
	"ML Engineer",
	"Senior React Developer",
	"Senior Python Backend Developer",
	"DevOps Engineer",
	"Generative AI Specialist",
	"Cloud Solutions Architect",
	"Security Engineer",
	"Mobile App Developer",
	"AI Product Engineer",
	"Data Scientist",
	"Full Stack Engineer",
	"Site Reliability Engineer (SRE)",
	"AI Infrastructure Engineer",
	"Data Platform Engineer",
	"Blockchain Developer",
	"Computer Vision Engineer",
	"AI Prompt Engineer",
	"Automation Engineer",
	"Embedded Systems Engineer",
}

// KnownJobTitle reports whether title is part of the catalog.
func KnownJobTitle(title string) bool {
	for _, t := range JobTitles {
		if t == title {
			return true
		}
	}

	return false
}
