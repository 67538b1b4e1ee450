package vision

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// LoadClassNames читает имена классов модели, по одному на строку.
func LoadClassNames(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var names []string
	scan := bufio.NewScanner(f)
	for scan.Scan() {
		name := strings.TrimSpace(scan.Text())
		if name == "" || strings.HasPrefix(name, "#") {
			continue
		}
		names = append(names, name)
	}
	if err := scan.Err(); err != nil {
		return nil, fmt.Errorf("read class names: %w", err)
	}
	return names, nil
}

// ClassName возвращает имя класса или "class_<id>", если имени нет.
func ClassName(names []string, id int) string {
	if id >= 0 && id < len(names) {
		return names[id]
	}
	return fmt.Sprintf("class_%d", id)
}
