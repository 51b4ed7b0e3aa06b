// dephealth_name.go — определение имени вершины графа topologymetrics.
// Приоритет: DEPHEALTH_NAME → имя владельца пода из hostname → SV_SERVICE_ID.
package main

import "strings"

// resolveDephealthName возвращает имя вершины графа для topologymetrics.
func resolveDephealthName(explicit, hostname, serviceID string) string {
	if explicit != "" {
		return explicit
	}
	if hostname != "" {
		return parseOwnerName(hostname)
	}
	return serviceID
}

// parseOwnerName извлекает имя владельца пода из hostname.
// Deployment: <owner>-<10 символов hash>-<5 символов suffix>.
// StatefulSet: <owner>-<ordinal>.
// Иначе hostname возвращается как есть.
func parseOwnerName(hostname string) string {
	parts := strings.Split(hostname, "-")
	if len(parts) < 2 {
		return hostname
	}

	last := parts[len(parts)-1]

	// StatefulSet: последний сегмент — порядковый номер
	if isDigits(last) {
		return strings.Join(parts[:len(parts)-1], "-")
	}

	// Deployment: последние два сегмента — pod-template-hash и суффикс пода
	if len(parts) >= 3 {
		hash := parts[len(parts)-2]
		if len(last) == 5 && isLowerAlnum(last) && len(hash) == 10 && isLowerAlnum(hash) {
			return strings.Join(parts[:len(parts)-2], "-")
		}
	}

	return hostname
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func isLowerAlnum(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'z')) {
			return false
		}
	}
	return true
}
