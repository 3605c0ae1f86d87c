package dipsw

import "regexp"

var (
	setting0Regex = regexp.MustCompile(`(?:^|•)\s*0:\s*(.*?)(?:•|$)`)
	setting1Regex = regexp.MustCompile(`(?:^|•)\s*1:\s*(.*?)(?:•|$)`)
)

// ParseSettings splits a settings cell into the meanings of bit values 0 and 1.
//
// Cells are written as bullet lists, "• 0: Disabled • 1: Enabled". When
// neither value is present the cell describes something other than a
// boolean (a range, a list of modes) and the whole text is returned as
// setting 0 with setting 1 nil.
func ParseSettings(raw string) (setting0, setting1 *string) {
	text := flattenLines(raw)
	if CleanText(text) == nil {
		return nil, nil
	}

	setting0 = matchSetting(setting0Regex, text)
	setting1 = matchSetting(setting1Regex, text)

	if setting0 == nil && setting1 == nil {
		return CleanText(text), nil
	}
	return setting0, setting1
}

func matchSetting(re *regexp.Regexp, text string) *string {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	return CleanText(m[1])
}
