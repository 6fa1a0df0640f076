// Package record provides the code-change record entity and its store contract.
package record

import (
	"strings"
	"time"

	"github.com/helixml/patchlog/domain/diffstat"
)

// Record is a logged code change. It is an immutable value; updates
// produce a new Record through Apply.
type Record struct {
	id          string
	user        string
	environment Environment
	branch      string
	taskID      string
	title       string
	description string
	diff        string
	summary     string
	tags        []string
	author      string
	stats       diffstat.Stats
	fileNames   []string
	createdAt   time.Time
	updatedAt   time.Time
}

// Draft carries the caller-supplied fields of a new record.
type Draft struct {
	Environment string
	Branch      string
	TaskID      string
	Title       string
	Description string
	Diff        string
	Summary     string
	Tags        []string
	Author      string
}

// Validate checks required fields and the environment.
func (d Draft) Validate() error {
	if blank(d.Environment) || blank(d.Branch) || blank(d.TaskID) || blank(d.Title) || blank(d.Diff) {
		return NewValidationError(MsgMissingFields)
	}
	_, err := ParseEnvironment(d.Environment)
	return err
}

// NewRecord validates d and builds a record owned by user. Diff statistics
// and file names are derived from the diff.
func NewRecord(id, user string, d Draft, now time.Time) (Record, error) {
	if err := d.Validate(); err != nil {
		return Record{}, err
	}
	env, _ := ParseEnvironment(d.Environment)
	return Record{
		id:          id,
		user:        user,
		environment: env,
		branch:      d.Branch,
		taskID:      d.TaskID,
		title:       d.Title,
		description: d.Description,
		diff:        d.Diff,
		summary:     d.Summary,
		tags:        cloneStrings(d.Tags),
		author:      d.Author,
		stats:       diffstat.Parse(d.Diff),
		fileNames:   diffstat.FileNames(d.Diff),
		createdAt:   now,
		updatedAt:   now,
	}, nil
}

// Reconstruct recreates a record from persistence.
func Reconstruct(
	id, user string,
	environment Environment,
	branch, taskID, title, description, diff, summary string,
	tags []string,
	author string,
	stats diffstat.Stats,
	fileNames []string,
	createdAt, updatedAt time.Time,
) Record {
	return Record{
		id:          id,
		user:        user,
		environment: environment,
		branch:      branch,
		taskID:      taskID,
		title:       title,
		description: description,
		diff:        diff,
		summary:     summary,
		tags:        cloneStrings(tags),
		author:      author,
		stats:       stats,
		fileNames:   cloneStrings(fileNames),
		createdAt:   createdAt,
		updatedAt:   updatedAt,
	}
}

// Patch is a partial update. Nil fields are left unchanged.
type Patch struct {
	Environment *string
	Branch      *string
	TaskID      *string
	Title       *string
	Description *string
	Diff        *string
	Summary     *string
	Tags        *[]string
	Author      *string
}

// Apply returns a copy of r with p applied. Required fields may not be
// cleared. Statistics are recomputed only when the diff actually changes.
func (r Record) Apply(p Patch, now time.Time) (Record, error) {
	for _, required := range []*string{p.Environment, p.Branch, p.TaskID, p.Title, p.Diff} {
		if required != nil && blank(*required) {
			return Record{}, NewValidationError(MsgMissingFields)
		}
	}

	next := r
	if p.Environment != nil {
		env, err := ParseEnvironment(*p.Environment)
		if err != nil {
			return Record{}, err
		}
		next.environment = env
	}
	setString(&next.branch, p.Branch)
	setString(&next.taskID, p.TaskID)
	setString(&next.title, p.Title)
	setString(&next.description, p.Description)
	setString(&next.summary, p.Summary)
	setString(&next.author, p.Author)
	if p.Tags != nil {
		next.tags = cloneStrings(*p.Tags)
	} else {
		next.tags = cloneStrings(r.tags)
	}
	next.fileNames = cloneStrings(r.fileNames)

	if p.Diff != nil && *p.Diff != r.diff {
		next.diff = *p.Diff
		next.stats = diffstat.Parse(next.diff)
		next.fileNames = diffstat.FileNames(next.diff)
	}

	next.updatedAt = now
	return next, nil
}

// ID returns the record identifier.
func (r Record) ID() string { return r.id }

// User returns the owning user.
func (r Record) User() string { return r.user }

// Environment returns the deployment environment.
func (r Record) Environment() Environment { return r.environment }

// Branch returns the source branch.
func (r Record) Branch() string { return r.branch }

// TaskID returns the tracker task reference.
func (r Record) TaskID() string { return r.taskID }

// Title returns the title.
func (r Record) Title() string { return r.title }

// Description returns the free-form description.
func (r Record) Description() string { return r.description }

// Diff returns the unified diff text.
func (r Record) Diff() string { return r.diff }

// Summary returns the (usually generated) summary.
func (r Record) Summary() string { return r.summary }

// Tags returns a copy of the tags.
func (r Record) Tags() []string { return cloneStrings(r.tags) }

// Author returns the display name of the author.
func (r Record) Author() string { return r.author }

// Stats returns the diff statistics.
func (r Record) Stats() diffstat.Stats { return r.stats }

// FileNames returns a copy of the changed file paths.
func (r Record) FileNames() []string { return cloneStrings(r.fileNames) }

// CreatedAt returns the creation time.
func (r Record) CreatedAt() time.Time { return r.createdAt }

// UpdatedAt returns the last modification time.
func (r Record) UpdatedAt() time.Time { return r.updatedAt }

func blank(s string) bool { return strings.TrimSpace(s) == "" }

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func cloneStrings(s []string) []string {
	out := make([]string, len(s))
	copy(out, s)
	return out
}
