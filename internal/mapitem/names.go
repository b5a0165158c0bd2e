package mapitem

// UnpackName декодирует короткое имя, упакованное в слова: по четыре символа
// на слово, старший байт первым, каждый символ хранится со смещением +128.
// Завершающие нулевые слова считаются выравниванием.
func UnpackName(words []int32) string {
	end := len(words)
	for end > 0 && words[end-1] == 0 {
		end--
	}
	if end == 0 {
		return ""
	}

	buf := make([]byte, 0, end*4)
	for _, w := range words[:end] {
		v := uint32(w)
		for shift := 24; shift >= 0; shift -= 8 {
			c := byte(v>>uint(shift)) - 128
			if c == 0 {
				return string(buf)
			}
			buf = append(buf, c)
		}
	}
	// Последний байт всего поля зарезервирован под терминатор. Если поле
	// дополнено нулевыми словами, этот байт лежит в выравнивании.
	if end == len(words) && len(buf) == end*4 {
		buf = buf[:len(buf)-1]
	}
	return string(buf)
}

// PackName упаковывает имя в n слов в том же формате, что читает UnpackName.
// Имя обрезается до n*4-1 байт.
func PackName(name string, n int) []int32 {
	buf := make([]byte, n*4)
	copy(buf[:len(buf)-1], name)

	words := make([]int32, n)
	for i := range words {
		var v uint32
		for j := 0; j < 4; j++ {
			v = v<<8 | uint32(buf[i*4+j]+128)
		}
		words[i] = int32(v)
	}
	return words
}
