// Package vulnscan fabricates vulnerability reports for a target URL. No
// request is ever sent to the target: results are drawn at random from a
// fixed catalog so the front end has something to display.
package vulnscan

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/Udeesh-Dinnipati/bugsu-ai-hunter-pro/internal/debugsim"
)

// ErrInvalidURL is returned for targets that are not absolute http(s) URLs.
var ErrInvalidURL = errors.New("invalid target url")

// Severity levels, in ascending order.
const (
	SeverityLow      = "low"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)

var severities = []string{SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical}

var affectedPaths = []string{"", "/login", "/admin", "/api/users", "/search"}

var reproductionSteps = []string{
	"Navigate to the affected URL",
	"Input specific malicious payload",
	"Observe the vulnerability behavior",
}

const (
	legalProbability = 0.8
	legalNote        = "Be cautious as this could violate terms of service. Obtain explicit permission before testing."
)

type weakness struct {
	Name        string
	CWE         string
	Description string
}

var weaknesses = []weakness{
	{"Cross-Site Scripting (XSS)", "CWE-79", "The application does not properly sanitize user input before displaying it, allowing script injection."},
	{"SQL Injection", "CWE-89", "The application constructs SQL statements using input that hasn't been properly validated."},
	{"Cross-Site Request Forgery (CSRF)", "CWE-352", "The application does not validate that requests were intentionally sent by the user."},
	{"Insecure Direct Object Reference", "CWE-639", "The application exposes references to internal objects, allowing unauthorized access."},
	{"Missing Authentication", "CWE-306", "The application does not authenticate users for a critical function."},
	{"Sensitive Data Exposure", "CWE-200", "The application exposes sensitive information in responses or error messages."},
}

// Vulnerability is one fabricated finding.
type Vulnerability struct {
	ID                string   `json:"id"`
	Name              string   `json:"name"`
	Severity          string   `json:"severity"`
	Description       string   `json:"description"`
	AffectedURL       string   `json:"affected_url"`
	CWE               string   `json:"cwe_id"`
	StepsToReproduce  []string `json:"steps_to_reproduce"`
	ExploitSuggestion string   `json:"exploit_suggestion"`
	IsLegal           bool     `json:"is_legal"`
	LegalNotes        string   `json:"legal_notes,omitempty"`
}

// Result is the outcome of one scan.
type Result struct {
	URL             string          `json:"url"`
	ScanDate        time.Time       `json:"scan_date"`
	Vulnerabilities []Vulnerability `json:"vulnerabilities"`
	// DurationSeconds is the reported scan time, not the real wait.
	DurationSeconds int `json:"scan_duration"`
}

// Severities returns the severity of each finding, in order.
func (r Result) Severities() []string {
	out := make([]string, len(r.Vulnerabilities))
	for i, v := range r.Vulnerabilities {
		out[i] = v.Severity
	}
	return out
}

// ValidateURL checks that raw is an absolute http or https URL with a host.
func ValidateURL(raw string) (*url.URL, error) {
	if raw == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidURL)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: scheme must be http or https", ErrInvalidURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: missing host", ErrInvalidURL)
	}
	return u, nil
}

// DefaultDelay is the configured wait when none is given.
const DefaultDelay = 3 * time.Second

// Options configures a Scanner.
type Options struct {
	// Delay is how long Scan waits before answering.
	Delay time.Duration
	// MaxVulnerabilities bounds the number of findings per scan.
	MaxVulnerabilities int
	Random             debugsim.Random
	Now                func() time.Time
}

// Scanner produces simulated scan results. It is safe for concurrent use.
type Scanner struct {
	delay   time.Duration
	maxVuln int
	now     func() time.Time

	mu  sync.Mutex
	rng debugsim.Random
}

// New creates a scanner. A zero Delay answers at once; a zero
// MaxVulnerabilities means five.
func New(opts Options) *Scanner {
	if opts.Delay < 0 {
		opts.Delay = 0
	}
	if opts.MaxVulnerabilities <= 0 {
		opts.MaxVulnerabilities = 5
	}
	if opts.Random == nil {
		opts.Random = debugsim.NewRandom(0)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Scanner{
		delay:   opts.Delay,
		maxVuln: opts.MaxVulnerabilities,
		now:     opts.Now,
		rng:     opts.Random,
	}
}

// Scan validates target, waits for the configured delay and returns a
// fabricated result. It returns ctx.Err() if ctx ends first.
func (s *Scanner) Scan(ctx context.Context, target string) (Result, error) {
	if _, err := ValidateURL(target); err != nil {
		return Result{}, err
	}
	if s.delay > 0 {
		timer := time.NewTimer(s.delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return Result{}, ctx.Err()
		case <-timer.C:
		}
	}
	return s.Simulate(target), nil
}

// Simulate fabricates a result immediately. target is not validated.
func (s *Scanner) Simulate(target string) Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	count := s.rng.IntN(s.maxVuln + 1)
	vulns := make([]Vulnerability, 0, count)
	for i := 0; i < count; i++ {
		w := weaknesses[s.rng.IntN(len(weaknesses))]
		severity := severities[s.rng.IntN(len(severities))]
		path := affectedPaths[s.rng.IntN(len(affectedPaths))]

		technique := "basic"
		if severity == SeverityCritical {
			technique = "advanced"
		}
		v := Vulnerability{
			ID:                fmt.Sprintf("VULN-%d-%d", now.UnixMilli(), i),
			Name:              w.Name,
			Severity:          severity,
			Description:       w.Description,
			AffectedURL:       target + path,
			CWE:               w.CWE,
			StepsToReproduce:  append([]string(nil), reproductionSteps...),
			ExploitSuggestion: fmt.Sprintf("Try a proof-of-concept exploit using %s techniques to validate this issue.", technique),
			IsLegal:           s.rng.Float64() < legalProbability,
		}
		if !v.IsLegal {
			v.LegalNotes = legalNote
		}
		vulns = append(vulns, v)
	}

	return Result{
		URL:             target,
		ScanDate:        now,
		Vulnerabilities: vulns,
		DurationSeconds: s.rng.IntN(10) + 2,
	}
}
