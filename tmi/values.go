package tmi

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/lucasb-eyer/go-colorful"
)

// EmoteRange хранит позиции эмоута в тексте сообщения, обе границы включительно.
type EmoteRange struct {
	Start int
	End   int
}

// ParseBadges разбирает "name/version,name/version" в отображение имя→версия.
// Нечисловая версия даёт 0.
func ParseBadges(value string) map[string]int {
	badges := make(map[string]int)
	for _, badge := range splitNonEmpty(value, ",") {
		name, version, _ := strings.Cut(badge, "/")
		n, _ := strconv.Atoi(version)
		badges[name] = n
	}
	return badges
}

// ParseEmotes разбирает "id:start-end,start-end/id:start-end".
// Пустое значение или значение, начинающееся с '/', означает отсутствие эмоутов.
// Диапазоны каждого эмоута сохраняют порядок появления; испорченные диапазоны пропускаются.
func ParseEmotes(value string) map[string][]EmoteRange {
	emotes := make(map[string][]EmoteRange)
	if value == "" || value[0] == '/' {
		return emotes
	}

	for _, group := range splitNonEmpty(value, "/") {
		id, positions, _ := strings.Cut(group, ":")
		if id == "" {
			continue
		}
		ranges := emotes[id]
		for _, pos := range splitNonEmpty(positions, ",") {
			startStr, endStr, ok := strings.Cut(pos, "-")
			if !ok {
				continue
			}
			start, errStart := strconv.Atoi(startStr)
			end, errEnd := strconv.Atoi(endStr)
			if errStart != nil || errEnd != nil {
				continue
			}
			ranges = append(ranges, EmoteRange{Start: start, End: end})
		}
		emotes[id] = ranges
	}
	return emotes
}

// ParseEmoteSets разбирает список идентификаторов наборов через запятую, сохраняя порядок.
func ParseEmoteSets(value string) []string {
	return splitNonEmpty(value, ",")
}

// ParseColor разбирает цвет вида "#RRGGBB" в компоненты [0,1].
// Пустое значение даёт чёрный цвет и ok=true (у пользователя цвет не выбран);
// любое другое значение не того вида даёт чёрный цвет и ok=false.
func ParseColor(value string) (colorful.Color, bool) {
	if value == "" {
		return colorful.Color{}, true
	}
	if len(value) != 7 || value[0] != '#' {
		return colorful.Color{}, false
	}
	c, err := colorful.Hex(value)
	if err != nil {
		return colorful.Color{}, false
	}
	return c, true
}

// UnescapeSystemMsg заменяет экранированные пробелы "\s" настоящими.
func UnescapeSystemMsg(value string) string {
	return strings.ReplaceAll(value, `\s`, " ")
}

// parseGUID принимает только канонический вид с дефисами (36 символов).
func parseGUID(value string) (uuid.UUID, bool) {
	if len(value) != 36 || value[8] != '-' || value[13] != '-' || value[18] != '-' || value[23] != '-' {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
