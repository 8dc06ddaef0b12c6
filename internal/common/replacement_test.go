package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/ternarybob/arbor"
)

// createTestLogger creates a logger for testing
func createTestLogger() arbor.ILogger {
	return arbor.NewLogger()
}

func TestReplacePlaceholders_Simple(t *testing.T) {
	logger := createTestLogger()
	values := map[string]string{"title": "Weekend in Chengdu"}

	input := "Title: {title}"
	expected := "Title: Weekend in Chengdu"

	result := ReplacePlaceholders(input, values, logger)
	assert.Equal(t, expected, result)
}

func TestReplacePlaceholders_Multiple(t *testing.T) {
	logger := createTestLogger()
	values := map[string]string{
		"title": "Hotpot tour",
		"desc":  "Five places worth the queue",
		"user":  "foodie-li",
	}

	input := "{title} by {user}: {desc}"
	expected := "Hotpot tour by foodie-li: Five places worth the queue"

	result := ReplacePlaceholders(input, values, logger)
	assert.Equal(t, expected, result)
}

func TestReplacePlaceholders_MissingValue(t *testing.T) {
	logger := createTestLogger()
	values := map[string]string{"title": "something"}

	input := "Content: {desc}"
	expected := "Content: {desc}" // Unchanged

	result := ReplacePlaceholders(input, values, logger)
	assert.Equal(t, expected, result)
}

func TestReplacePlaceholders_InvalidSyntax(t *testing.T) {
	logger := createTestLogger()
	values := map[string]string{"invalid name": "value"}

	// Space in placeholder name - doesn't match regex
	input := "field = {invalid name}"
	expected := "field = {invalid name}" // Unchanged

	result := ReplacePlaceholders(input, values, logger)
	assert.Equal(t, expected, result)
}

func TestReplacePlaceholders_EmptyInput(t *testing.T) {
	logger := createTestLogger()
	values := map[string]string{"title": "value"}

	result := ReplacePlaceholders("", values, logger)
	assert.Equal(t, "", result)
}

func TestReplacePlaceholders_NoReferences(t *testing.T) {
	logger := createTestLogger()
	values := map[string]string{"title": "value"}

	input := "Summarize the following note."
	result := ReplacePlaceholders(input, values, logger)
	assert.Equal(t, input, result)
}

func TestReplacePlaceholders_MultipleOccurrences(t *testing.T) {
	logger := createTestLogger()
	values := map[string]string{"title": "value"}

	input := "{title} and {title} and {title}"
	expected := "value and value and value"

	result := ReplacePlaceholders(input, values, logger)
	assert.Equal(t, expected, result)
}

func TestReplacePlaceholders_BracesInValue(t *testing.T) {
	logger := createTestLogger()
	values := map[string]string{
		"desc": "JSON body {\"a\": 1}",
	}

	// Values containing braces are inserted literally, not re-expanded
	input := "Content:\n{desc}"
	expected := "Content:\nJSON body {\"a\": 1}"

	result := ReplacePlaceholders(input, values, logger)
	assert.Equal(t, expected, result)
}

func TestReplacePlaceholders_NumbersAndSeparators(t *testing.T) {
	logger := createTestLogger()
	values := map[string]string{
		"key123":  "value1",
		"key-123": "value2",
		"key_123": "value3",
	}

	input := "{key123} {key-123} {key_123}"
	expected := "value1 value2 value3"

	result := ReplacePlaceholders(input, values, logger)
	assert.Equal(t, expected, result)
}
