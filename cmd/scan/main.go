package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/sanderley-ribeiro/proload-mngt-systems-sub000/internal/domain"
	"github.com/sanderley-ribeiro/proload-mngt-systems-sub000/internal/pkg/scanner"
)

// Cliente de conferência para terminais sem navegador: o leitor de código de
// barras USB se comporta como teclado, então lemos os bytes crus do stdin,
// passamos pela máquina de estados do pacote scanner e enviamos cada código
// completo para o endpoint de bipagem do romaneio.
//
// Uso:
//
//	proload-scan -manifest <uuid> -token <jwt> [-addr http://localhost:8080]
func main() {
	var (
		addr       string
		manifestID string
		token      string
	)
	flag.StringVar(&addr, "addr", "http://localhost:8080", "endereço base da API ProLoad")
	flag.StringVar(&manifestID, "manifest", "", "ID do romaneio em conferência")
	flag.StringVar(&token, "token", "", "token JWT do operador")
	flag.Parse()

	if manifestID == "" || token == "" {
		fmt.Fprintln(os.Stderr, "uso: proload-scan -manifest <uuid> -token <jwt> [-addr <url>]")
		os.Exit(2)
	}

	client := &http.Client{Timeout: 10 * time.Second}
	scanURL := fmt.Sprintf("%s/v1/manifests/%s/scan", addr, manifestID)

	listener := scanner.Capture(func(code string) {
		if err := postScan(client, scanURL, token, code); err != nil {
			log.Printf("✖ %s: %v", code, err)
			return
		}
		log.Printf("✔ bipado: %s", code)
	})
	defer listener.Release()

	log.Printf("⚡ Conferência do romaneio %s iniciada. Bipe os produtos (Ctrl+D encerra).", manifestID)

	// Byte a byte: o leitor emite os caracteres do código um a um e termina
	// com Enter, exatamente o fluxo que a máquina de estados espera.
	reader := bufio.NewReader(os.Stdin)
	for {
		b, err := reader.ReadByte()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Fatalf("falha ao ler o stdin: %v", err)
		}
		listener.Key(b)
	}

	if pending := listener.Pending(); pending > 0 {
		log.Printf("⚠️ Código parcial descartado (%d caracteres sem terminador).", pending)
	}
	log.Println("Conferência encerrada.")
}

// postScan envia um código bipado para a API e traduz respostas não-2xx em erro.
func postScan(client *http.Client, url, token, code string) error {
	payload, err := json.Marshal(domain.ScanRequest{Code: code})
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	var errResp domain.ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return fmt.Errorf("%s (%d)", errResp.Message, errResp.Code)
}
