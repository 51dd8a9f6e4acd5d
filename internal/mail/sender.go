package mail

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

var defaultFromAddr string

func SetDefaultFromAddress(from string) {
	defaultFromAddr = from
}

type Message struct {
	From     string
	To       []string
	Cc       []string
	Bcc      []string
	Subject  string
	Body     string
	HTMLBody string
}

type MailSender interface {
	Send(message *Message) error
}

// ConsoleMailSender writes messages to a writer instead of delivering them.
type ConsoleMailSender struct {
	mu  sync.Mutex
	out io.Writer
}

func (s *ConsoleMailSender) Send(message *Message) error {
	from := message.From
	if from == "" {
		from = defaultFromAddr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := fmt.Fprintf(s.out, "From: %s\nTo: %s\nSubject: %s\n\n%s\n%s\n",
		from, strings.Join(message.To, ", "), message.Subject, message.Body, strings.Repeat("-", 72))
	return err
}

func NewConsoleMailSender(out io.Writer) *ConsoleMailSender {
	return &ConsoleMailSender{out: out}
}
