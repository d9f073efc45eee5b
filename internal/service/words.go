package service

import "strings"

// DefaultCategory は未知のカテゴリが指定された場合に使うキー
const DefaultCategory = "DEFAULT"

// WordBank はカテゴリごとのお題一覧です
type WordBank map[string][]string

// DefaultWords は組み込みのお題一覧
var DefaultWords = WordBank{
	DefaultCategory: {"Pizza", "Lion", "Airplane", "Sea", "School", "Pen", "Strawberry", "Robot", "Car", "Football"},
	"food":          {"Burger", "Sushi", "Kebab", "Mansaf", "Shawarma", "Ice cream", "Falafel"},
	"animals":       {"Elephant", "Giraffe", "Penguin", "Falcon", "Dolphin", "Kangaroo", "Tiger", "Wolf"},
	"jobs":          {"Doctor", "Engineer", "Pilot", "Carpenter", "Programmer", "Astronaut"},
	"brands":        {"Apple", "Samsung", "Nike", "Mercedes", "Pepsi", "Toyota"},
}

// Resolve はカテゴリキーからお題一覧を引きます
// 空・未知・空リストのカテゴリはデフォルトにフォールバックします
func (b WordBank) Resolve(category string) (string, []string) {
	key := strings.TrimSpace(category)
	if key != DefaultCategory {
		key = strings.ToLower(key)
	}
	if list, ok := b[key]; ok && len(list) > 0 {
		return key, list
	}
	return DefaultCategory, b[DefaultCategory]
}
