package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/gorilla/websocket"
)

// Cliente de terminal para probar el servidor: hace login por REST y abre la
// conexion websocket contra /ws/chat/<peer>.

type tokenResponse struct {
	Tokens struct {
		AccessToken string `json:"access_token"`
	} `json:"tokens"`
}

type envelope struct {
	Text     string `json:"text"`
	Username string `json:"username"`
}

func main() {
	server := flag.String("server", "localhost:8080", "host:puerto del servidor")
	username := flag.String("user", "", "nombre de usuario")
	password := flag.String("pass", "", "password")
	peer := flag.String("peer", "", "usuario con quien chatear")
	flag.Parse()

	if *username == "" || *password == "" || *peer == "" {
		fmt.Println("uso: cli_chat -user <yo> -pass <password> -peer <otro> [-server host:puerto]")
		os.Exit(1)
	}

	token, err := login(*server, *username, *password)
	if err != nil {
		log.Fatalf("login: %v", err)
	}

	wsURL := url.URL{Scheme: "ws", Host: *server, Path: "/ws/chat/" + *peer}
	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL.String(), header)
	if err != nil {
		log.Fatalf("conectar websocket: %v", err)
	}
	defer conn.Close()

	fmt.Printf("Conectado como %s, chateando con %s. Escribe 'salir' para terminar.\n", *username, *peer)

	go func() {
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				fmt.Println("\nconexion cerrada")
				os.Exit(0)
			}
			var env envelope
			if err := json.Unmarshal(data, &env); err != nil {
				continue
			}
			fmt.Printf("%s > %s\n", env.Username, env.Text)
		}
	}()

	reader := bufio.NewReader(os.Stdin)
	for {
		text, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		if strings.EqualFold(text, "salir") || strings.EqualFold(text, "exit") {
			return
		}
		if err := conn.WriteMessage(websocket.TextMessage, []byte(text)); err != nil {
			log.Fatalf("enviar mensaje: %v", err)
		}
	}
}

func login(server, username, password string) (string, error) {
	body, err := json.Marshal(map[string]string{
		"username": username,
		"password": password,
	})
	if err != nil {
		return "", err
	}

	resp, err := http.Post("http://"+server+"/v1/auth/token", "application/json", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("status %d", resp.StatusCode)
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", err
	}
	if tr.Tokens.AccessToken == "" {
		return "", fmt.Errorf("respuesta sin access token")
	}
	return tr.Tokens.AccessToken, nil
}
