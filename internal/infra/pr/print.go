// Package pr — тонкая обёртка для вывода в интерактивной консоли.
// Инициализирует readline с отменяемым stdin (нужно генератору сессий для ввода
// телефона и кода), переназначает stdout/stderr на его буферы и предоставляет
// функции печати. До Init() всё пишется напрямую в os.Stdout/os.Stderr.
// Мьютекс защищает только смену целевых writer’ов, не сами записи.

package pr

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/chzyer/readline"
	"github.com/kr/pretty"
)

var (
	rl     *readline.Instance
	out    io.Writer = os.Stdout
	errOut io.Writer = os.Stderr
	mu     sync.Mutex

	// cancelableIn — stdin, закрытие которого прерывает ожидание ввода (io.EOF в readline).
	cancelableIn interface{ Close() error }
)

// ErrNotInitialized — ReadLine вызван до Init().
var ErrNotInitialized = errors.New("pr: readline is not initialized")

// Init настраивает readline и перенаправляет потоки вывода на его stdout/stderr.
func Init() error {
	cs := readline.NewCancelableStdin(os.Stdin)
	newRl, err := readline.NewEx(&readline.Config{Stdin: cs})
	if err != nil {
		_ = cs.Close()
		return err
	}

	mu.Lock()
	rl = newRl
	cancelableIn = cs
	out = rl.Stdout()
	errOut = rl.Stderr()
	mu.Unlock()

	return nil
}

// Close возвращает потоки на os.Stdout/os.Stderr и закрывает readline. Идемпотентна.
func Close() {
	mu.Lock()
	defer mu.Unlock()
	if cancelableIn != nil {
		_ = cancelableIn.Close()
		cancelableIn = nil
	}
	if rl != nil {
		_ = rl.Close()
		rl = nil
	}
	out = os.Stdout
	errOut = os.Stderr
}

// InterruptReadline закрывает cancelable stdin: ReadLine получает io.EOF и возвращается.
func InterruptReadline() {
	mu.Lock()
	defer mu.Unlock()
	if cancelableIn != nil {
		_ = cancelableIn.Close()
	}
}

// ReadLine выставляет приглашение, читает строку и обрезает пробелы по краям.
func ReadLine(prompt string) (string, error) {
	mu.Lock()
	inst := rl
	mu.Unlock()
	if inst == nil {
		return "", ErrNotInitialized
	}
	inst.SetPrompt(prompt)
	line, err := inst.Readline()
	return strings.TrimSpace(line), err
}

// SetOutput переназначает writer’ы вывода (nil — os.Stdout/os.Stderr).
// Нужен тестам, которые проверяют, что именно ушло в консоль.
func SetOutput(stdout, stderr io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	out = stdout
	errOut = stderr
}

// Stdout возвращает текущий writer стандартного вывода.
func Stdout() io.Writer {
	mu.Lock()
	defer mu.Unlock()
	return out
}

// Stderr возвращает текущий writer ошибок.
func Stderr() io.Writer {
	mu.Lock()
	defer mu.Unlock()
	return errOut
}

// Print печатает значения в Stdout без перевода строки.
func Print(a ...any) {
	fmt.Fprint(Stdout(), a...)
}

// Println печатает значения в Stdout и добавляет перевод строки.
func Println(a ...any) {
	fmt.Fprintln(Stdout(), a...)
}

// Printf форматирует строку и печатает её в Stdout.
func Printf(format string, a ...any) {
	fmt.Fprintf(Stdout(), format, a...)
}

// ErrPrintln печатает значения в Stderr и добавляет перевод строки.
func ErrPrintln(a ...any) {
	fmt.Fprintln(Stderr(), a...)
}

// Pf возвращает pretty-строку значения. Только для отладки: аллоцирует.
func Pf(v any) string {
	return fmt.Sprintf("%# v", pretty.Formatter(v))
}
