package slug

import (
	"crypto/rand"
	"strings"
	"unicode"
)

const (
	// BaseMaxLength максимальная длина основы slug-а, полученной из имени
	BaseMaxLength = 12

	// SuffixLength длина случайного суффикса
	SuffixLength = 4

	// suffixAlphabet фиксированный алфавит без визуально неоднозначных символов
	// (исключены i, l, o, 0, 1)
	suffixAlphabet = "abcdefghjkmnpqrstuvwxyz23456789"
)

// Make формирует человекочитаемый slug из имени: строчные буквы и цифры,
// усеченные до BaseMaxLength рун, плюс случайный суффикс из SuffixLength
// символов фиксированного алфавита. Уникальность вызывающая сторона
// проверяет сама и при коллизии запрашивает новый slug.
func Make(name string) string {
	base := normalize(name)
	return base + randomSuffix(SuffixLength)
}

// normalize приводит имя к строчным буквам и цифрам, усекая до BaseMaxLength рун
func normalize(name string) string {
	var b strings.Builder
	b.Grow(BaseMaxLength)

	count := 0
	for _, r := range strings.ToLower(name) {
		if count >= BaseMaxLength {
			break
		}
		if (unicode.IsLetter(r) && r <= unicode.MaxASCII) || ('0' <= r && r <= '9') {
			b.WriteRune(r)
			count++
		}
	}
	return b.String()
}

// randomSuffix генерирует случайную строку заданной длины над suffixAlphabet
func randomSuffix(length int) string {
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand на поддерживаемых платформах не возвращает ошибок чтения
		panic("slug: failed to read random bytes: " + err.Error())
	}
	for i, v := range buf {
		buf[i] = suffixAlphabet[int(v)%len(suffixAlphabet)]
	}
	return string(buf)
}
