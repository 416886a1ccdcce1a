// Command badger_inspect dumps the keys of a closed BadgerDB store as a
// table. Useful when debugging key layout or pagination issues without
// starting the server.
//
// Usage: go run ./tools -db /var/lib/crm/badger -prefix "msg:"
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/olekukonko/tablewriter"
	"github.com/vmihailenco/msgpack/v5"
)

type storedMessage struct {
	ID       string `msgpack:"id"`
	TenantID string `msgpack:"tenant_id"`
	ChatID   string `msgpack:"chat_id"`
	SenderID string `msgpack:"sender_id"`
	FromMe   bool   `msgpack:"from_me"`
	Text     string `msgpack:"text"`
	At       int64  `msgpack:"at"`
}

func main() {
	dbPath := flag.String("db", "", "Path to badger DB")
	prefix := flag.String("prefix", "msg:", "Prefix to scan (msg:, lead:, customer:, person:)")
	flag.Parse()

	if *dbPath == "" {
		log.Fatal("-db is required")
	}

	db, err := badger.Open(badger.DefaultOptions(*dbPath).
		WithReadOnly(true).
		WithLogger(nil).
		WithBypassLockGuard(true))
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Key", "Tenant", "Chat", "Sender", "Direction", "At", "Text"})
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)

	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefixBytes := []byte(*prefix)
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
			item := it.Item()
			key := string(item.Key())

			err := item.Value(func(value []byte) error {
				if !strings.HasPrefix(key, "msg:") {
					// CRM entities: show the raw key only, the value shape
					// depends on the entity kind.
					table.Append([]string{key, "", "", "", "", "", fmt.Sprintf("(%d bytes)", len(value))})
					return nil
				}

				var stored storedMessage
				if err := msgpack.Unmarshal(value, &stored); err != nil {
					// Log and keep scanning instead of aborting the dump.
					fmt.Printf("Error unmarshaling key %s: %v\n", key, err)
					return nil
				}

				direction := "inbound"
				if stored.FromMe {
					direction = "outbound"
				}
				text := stored.Text
				if len(text) > 48 {
					text = text[:48] + "..."
				}
				table.Append([]string{
					key,
					stored.TenantID,
					stored.ChatID,
					stored.SenderID,
					direction,
					time.Unix(0, stored.At).UTC().Format("15:04:05"),
					text,
				})
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Fatal(err)
	}

	table.Render()
}
