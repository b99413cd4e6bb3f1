package core

import (
	"fmt"
	"path"
	"regexp"
	"sort"
	"strings"
	"time"
)

// DateTokenLayout is the layout of the 8 digit date token embedded in
// dataset and model names. Tokens are fixed width and zero padded, so the
// lexical order of two tokens is also their chronological order.
const DateTokenLayout = "20060102"

var dateTokenRe = regexp.MustCompile(`\d{8}`)

// ExtractDateToken returns the first run of 8 consecutive digits in name.
func ExtractDateToken(name string) (string, bool) {
	token := dateTokenRe.FindString(name)
	return token, token != ""
}

// ParseDateToken parses the first date token in name. An 8 digit run that is
// not a valid calendar date is reported as unparseable.
func ParseDateToken(name string) (time.Time, bool) {
	token, ok := ExtractDateToken(name)
	if !ok {
		return time.Time{}, false
	}
	date, err := time.Parse(DateTokenLayout, token)
	if err != nil {
		return time.Time{}, false
	}
	return date, true
}

// SortByDate orders names ascending by their date token, earliest first.
// Names with equal tokens are ordered by the full name. Names are expected
// to carry a token; callers filter out the ones that don't.
func SortByDate(names []string) {
	sort.SliceStable(names, func(i, j int) bool {
		ti, _ := ExtractDateToken(names[i])
		tj, _ := ExtractDateToken(names[j])
		if ti != tj {
			return ti < tj
		}
		return names[i] < names[j]
	})
}

// LatestByName returns the lexically greatest name.
func LatestByName(names []string) (string, bool) {
	if len(names) == 0 {
		return "", false
	}
	latest := names[0]
	for _, name := range names[1:] {
		if name > latest {
			latest = name
		}
	}
	return latest, true
}

// ModelName is the name a model trained on the given dataset is published
// under. The model carries the dataset's date token so that it compares as
// current against that dataset.
func ModelName(datasetName string) (string, error) {
	token, ok := ExtractDateToken(datasetName)
	if !ok {
		return "", fmt.Errorf("dataset name '%s' has no date token", datasetName)
	}
	return "model_" + token + ".json", nil
}

// PredictionName is the object name predictions for a dataset are written to.
func PredictionName(datasetName string) string {
	base := path.Base(datasetName)
	return strings.TrimSuffix(base, path.Ext(base)) + "_predictions.csv"
}
