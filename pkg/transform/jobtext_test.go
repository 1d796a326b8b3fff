package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseJobAttributes(t *testing.T) {
	text := `<p>Acme is hiring Acme engineers.</p><p>Full-time in San Francisco.</p>` +
		`<p>Salary 150k-200k plus equity.</p>`

	attrs := ParseJobAttributes(text)
	assert.Equal(t, "full-time", attrs.JobType)
	assert.Equal(t, "san francisco", attrs.Location)
	assert.Equal(t, "acme", attrs.Company)
	assert.Equal(t, "150k-200k", attrs.SalaryRange)
}

func TestParseJobAttributesRemote(t *testing.T) {
	attrs := ParseJobAttributes("Remote contract work for experienced devs")
	// Contract wins over remote for job type; remote still counts as a location.
	assert.Equal(t, "contract", attrs.JobType)
	assert.Equal(t, "remote", attrs.Location)
}

func TestParseJobAttributesEmpty(t *testing.T) {
	assert.Equal(t, JobAttributes{}, ParseJobAttributes(""))
}

func TestParseJobAttributesNoMatches(t *testing.T) {
	attrs := ParseJobAttributes("We build things.")
	assert.Equal(t, "other", attrs.JobType)
	assert.Empty(t, attrs.Location)
	assert.Empty(t, attrs.Company)
	assert.Empty(t, attrs.SalaryRange)
}

func TestFlattenHTMLParagraphBoundaries(t *testing.T) {
	got := flattenHTML("<p>one</p><p>two</p>three<br>four")
	assert.Equal(t, "one two three four", got)
}
