package repository

import "strings"

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// containsPattern 把 s 当作字面子串，生成配合 ESCAPE '!' 使用的 LIKE 模式
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}
