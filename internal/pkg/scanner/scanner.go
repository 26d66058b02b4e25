package scanner

import (
	"sync"
)

// Leitores de código de barras USB se comportam como teclados: emitem os
// caracteres do código um a um e terminam com Enter. Este pacote converte esse
// fluxo bruto de teclas em eventos de bipagem discretos, através de uma máquina
// de estados explícita (idle -> accumulating -> emite e reseta no terminador),
// com aquisição e liberação escopadas à tela de conferência ativa.

// state enumera os estados da máquina.
type state int

const (
	stateIdle state = iota
	stateAccumulating
)

// Terminadores aceitos. Leitores configurados para CR, LF ou CRLF funcionam:
// o segundo byte de um CRLF chega com o buffer vazio e é um no-op.
const (
	keyCR = '\r'
	keyLF = '\n'
)

// Listener acumula teclas até o terminador e emite o código completo.
// É seguro para uso concorrente: o loop de eventos de teclado e o teardown da
// tela podem rodar em goroutines distintas.
type Listener struct {
	mu     sync.Mutex
	state  state
	buffer []byte
	emit   func(code string)
	active bool
}

// Capture instala um novo listener e retorna o handle para alimentá-lo e
// liberá-lo. O callback emit é chamado de forma síncrona a cada código completo.
func Capture(emit func(code string)) *Listener {
	return &Listener{
		state:  stateIdle,
		emit:   emit,
		active: true,
	}
}

// Key processa uma tecla do fluxo bruto.
//   - Caractere imprimível: acumula no buffer (idle -> accumulating).
//   - Terminador com buffer não vazio: emite o código e reseta (-> idle).
//   - Terminador com buffer vazio: no-op.
//   - Qualquer outra tecla de controle: ignorada.
//
// Teclas recebidas após Release são descartadas.
func (l *Listener) Key(k byte) {
	l.mu.Lock()

	if !l.active {
		l.mu.Unlock()
		return
	}

	switch {
	case k == keyCR || k == keyLF:
		if l.state == stateIdle {
			// Buffer vazio: terminador solto, nada a emitir.
			l.mu.Unlock()
			return
		}
		code := string(l.buffer)
		l.buffer = l.buffer[:0]
		l.state = stateIdle
		emit := l.emit
		l.mu.Unlock()

		// Emite fora do lock: o callback pode reentrar no listener.
		emit(code)
		return

	case k >= 0x20 && k <= 0x7e:
		l.buffer = append(l.buffer, k)
		l.state = stateAccumulating
		l.mu.Unlock()
		return

	default:
		// Teclas de controle (setas, tab, etc.) não fazem parte de um código.
		l.mu.Unlock()
		return
	}
}

// Pending retorna quantos caracteres estão acumulados aguardando o terminador.
func (l *Listener) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buffer)
}

// Release desinstala o listener (teardown da tela de conferência). Teclas
// posteriores são descartadas e um código parcialmente acumulado é abandonado.
// Chamadas repetidas são inofensivas.
func (l *Listener) Release() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.active = false
	l.buffer = nil
	l.state = stateIdle
}
