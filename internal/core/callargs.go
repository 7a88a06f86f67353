package core

// readThroughArgs 各库函数按值读取（解引用读）的参数位置，1 起始
var readThroughArgs = map[string][]int{
	"memcmp": {1, 2}, "memchr": {1}, "memcpy": {2}, "memmove": {2},
	"strcpy": {2}, "strncpy": {2}, "strcat": {1, 2}, "strncat": {1, 2},
	"strcmp": {1, 2}, "strncmp": {1, 2}, "strlen": {1}, "strstr": {1, 2},
	"strchr": {1}, "strrchr": {1}, "strdup": {1},
	"strtol": {1}, "strtoul": {1}, "strtod": {1},
	"atoi": {1}, "atof": {1}, "atol": {1},
	"puts": {1}, "fputs": {1}, "fwrite": {1}, "perror": {1}, "system": {1},
	"fopen": {1, 2}, "printf": {1}, "fprintf": {2}, "sprintf": {2}, "snprintf": {3},
}

// derefArgs 传入无效指针即危险（读或写都会解引用）的参数位置
var derefArgs = map[string][]int{
	"memset": {1}, "memcpy": {1, 2}, "memmove": {1, 2}, "memcmp": {1, 2}, "memchr": {1},
	"strcpy": {1, 2}, "strncpy": {1, 2}, "strcat": {1, 2}, "strncat": {1, 2},
	"strcmp": {1, 2}, "strncmp": {1, 2}, "strlen": {1}, "strstr": {1, 2},
	"strchr": {1}, "strrchr": {1},
	"fgets": {1}, "fread": {1}, "fwrite": {1}, "fflush": {1},
	"sprintf": {1, 2}, "snprintf": {1, 3}, "fprintf": {2},
	"printf": {1}, "puts": {1}, "fputs": {1},
}

// formatStringPos printf 家族格式串所在的参数位置
var formatStringPos = map[string]int{
	"printf":  1,
	"fprintf": 2,
	"sprintf": 2,
	"snprintf": 3,
}

// ParseFunctionCall 对 tok 处的函数调用做参数分类
//
// mode 1 收集所指内容被读取的实参，mode 0 收集会被解引用（无效指针即
// 危险）的实参。返回实参名 token 的下标；只收集以已声明变量开头的实参。
// printf 家族额外解析格式串：%s 记为读取，%n 记为解引用。
func ParseFunctionCall(a *TokenArena, tok int, mode int) []int {
	name := a.Str(tok)
	if a.Str(tok+1) != "(" || a.Link(tok+1) == NoTok {
		return nil
	}
	args := splitCallArgs(a, tok+1)

	var positions []int
	if mode == 1 {
		positions = append(positions, readThroughArgs[name]...)
	} else {
		positions = append(positions, derefArgs[name]...)
	}
	if fp, ok := formatStringPos[name]; ok && fp <= len(args) {
		read, deref := formatConversionArgs(a, args[fp-1], fp)
		if mode == 1 {
			positions = append(positions, read...)
		} else {
			positions = append(positions, deref...)
		}
	}

	seen := make(map[int]bool)
	var out []int
	for _, p := range positions {
		if p < 1 || p > len(args) {
			continue
		}
		idx := args[p-1]
		if a.VarID(idx) == 0 || seen[idx] {
			continue
		}
		seen[idx] = true
		out = append(out, idx)
	}
	return out
}

// splitCallArgs 按顶层逗号切分实参，返回各实参首 token 下标
func splitCallArgs(a *TokenArena, open int) []int {
	close := a.Link(open)
	if close == NoTok || close == open+1 {
		return nil
	}
	var args []int
	start := open + 1
	depth := 0
	for i := open + 1; i < close; i++ {
		switch a.Str(i) {
		case "(", "[", "{":
			depth++
		case ")", "]", "}":
			depth--
		case ",":
			if depth == 0 {
				args = append(args, start)
				start = i + 1
			}
		}
	}
	args = append(args, start)
	return args
}

// formatConversionArgs 解析格式串字面量，返回 %s / %n 对应的参数位置
func formatConversionArgs(a *TokenArena, fmtTok int, fmtPos int) (read, deref []int) {
	t := a.At(fmtTok)
	if t == nil || !t.IsString {
		return nil, nil
	}
	pos := fmtPos
	s := t.Text
	for i := 0; i < len(s); i++ {
		if s[i] != '%' {
			continue
		}
		i++
		if i >= len(s) || s[i] == '%' {
			continue
		}
		for i < len(s) && (s[i] == '-' || s[i] == '+' || s[i] == ' ' || s[i] == '#' ||
			s[i] == '.' || s[i] == '*' || (s[i] >= '0' && s[i] <= '9') ||
			s[i] == 'l' || s[i] == 'h' || s[i] == 'q' || s[i] == 'j' ||
			s[i] == 'z' || s[i] == 't' || s[i] == 'L') {
			i++
		}
		if i >= len(s) {
			break
		}
		pos++
		switch s[i] {
		case 's':
			read = append(read, pos)
		case 'n':
			deref = append(deref, pos)
		}
	}
	return read, deref
}

// IsPointerDeref tok 处的变量是否被解引用（*v、v[...]、v->...）
func IsPointerDeref(a *TokenArena, vartok int) bool {
	if a.Str(vartok-1) == "*" {
		switch a.Str(vartok - 2) {
		case ";", "{", "}", "(", "[", ",", "=", "return",
			"+", "-", "*", "/", "%", "!", "~",
			"&&", "||", "==", "!=", "<", ">", "<=", ">=", "<<", ">>":
			return true
		}
		if vartok-2 < 0 {
			return true
		}
	}
	next := a.Str(vartok + 1)
	return next == "[" || next == "->"
}
