package commsutil

import (
	"testing"
	"time"

	commsserver "github.com/nats-io/nats-server/v2/server"
)

const connectTestPrefix = "commsutil:connect_test"

func TestConnect_InvalidURL(t *testing.T) {
	nc, err := Connect("invalid://not-a-nats-server", "platform-client-test")
	if err == nil {
		nc.Close()
		t.Fatalf("%s - expected error for invalid URL", connectTestPrefix)
	}
	if nc != nil {
		t.Errorf("%s - expected nil connection on error", connectTestPrefix)
	}
}

func TestConnect_PublishesUnderPrefix(t *testing.T) {
	ns, err := commsserver.NewServer(&commsserver.Options{Host: "127.0.0.1", Port: 14238, NoLog: true, NoSigs: true})
	if err != nil {
		t.Fatalf("%s - failed to create server: %v", connectTestPrefix, err)
	}
	go ns.Start()
	defer func() {
		ns.Shutdown()
		ns.WaitForShutdown()
	}()
	if !ns.ReadyForConnections(10 * time.Second) {
		t.Fatalf("%s - server failed to start", connectTestPrefix)
	}

	nc, err := Connect(ns.ClientURL(), "platform-client-test")
	if err != nil {
		t.Fatalf("%s - Connect: %v", connectTestPrefix, err)
	}
	defer nc.Close()
	if nc.Opts.Name != "platform-client-test" {
		t.Errorf("%s - Name = %q", connectTestPrefix, nc.Opts.Name)
	}
	if nc.Opts.MaxReconnect != -1 {
		t.Errorf("%s - MaxReconnect = %d, want unlimited", connectTestPrefix, nc.Opts.MaxReconnect)
	}

	sub, err := nc.SubscribeSync(BuildEventWildcard(""))
	if err != nil {
		t.Fatalf("%s - subscribe: %v", connectTestPrefix, err)
	}
	if err := nc.Publish(BuildEventSubject("", "network.reachable"), []byte(`{}`)); err != nil {
		t.Fatalf("%s - publish: %v", connectTestPrefix, err)
	}
	msg, err := sub.NextMsg(5 * time.Second)
	if err != nil {
		t.Fatalf("%s - NextMsg: %v", connectTestPrefix, err)
	}
	if msg.Subject != SubjectEventPrefix+".network.reachable" {
		t.Errorf("%s - subject = %q", connectTestPrefix, msg.Subject)
	}
}
