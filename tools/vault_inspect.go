// Command vault_inspect dumps the Badger store as a table: chats,
// messages, users and media headers, without the payload bytes.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/olekukonko/tablewriter"

	"social-live/domain"
	"social-live/repositories"
)

func main() {
	dbPath := flag.String("db", "/tmp/social-live", "Path to badger DB")
	prefix := flag.String("prefix", "", "Prefix to scan (chat:, chatmsg:, user:, media:, direct:, member:)")
	flag.Parse()

	db, err := openDB(*dbPath)
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Key", "Type", "Detail"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefixBytes := []byte(*prefix)
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
			item := it.Item()
			key := string(item.Key())

			err := item.Value(func(v []byte) error {
				rowType, detail := describe(key, v)
				table.Append([]string{key, rowType, detail})
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

func describe(key string, val []byte) (string, string) {
	switch {
	case strings.HasPrefix(key, "chatmsg:"):
		var msg domain.Message
		if err := json.Unmarshal(val, &msg); err != nil {
			return "MSG", "unreadable"
		}
		return "MSG", fmt.Sprintf("%s %s %s", msg.SentAt.Format("15:04:05"), msg.Sender, msg.Preview())
	case strings.HasPrefix(key, "chat:"):
		var chat domain.Chat
		if err := json.Unmarshal(val, &chat); err != nil {
			return "CHAT", "unreadable"
		}
		return "CHAT", fmt.Sprintf("%d participants, %d messages", len(chat.Participants), chat.MessageCount)
	case strings.HasPrefix(key, "user:"):
		var user repositories.User
		if err := json.Unmarshal(val, &user); err != nil {
			return "USER", "unreadable"
		}
		return "USER", fmt.Sprintf("%s <%s>", user.Name, user.Email)
	case strings.HasPrefix(key, "media:"):
		var blob domain.MediaBlob
		if err := json.Unmarshal(val, &blob); err != nil {
			return "MEDIA", "unreadable"
		}
		return "MEDIA", fmt.Sprintf("%s %s %d bytes", blob.Type, blob.MimeType, len(blob.Payload))
	case strings.HasPrefix(key, "direct:"):
		return "PAIR", string(val)
	case strings.HasPrefix(key, "member:"), strings.HasPrefix(key, "uid:"):
		return "INDEX", string(val)
	}
	return "RAW", fmt.Sprintf("%d bytes", len(val))
}

func openDB(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).
		WithReadOnly(true).
		WithLogger(nil).
		WithBypassLockGuard(true).
		WithValueLogFileSize(10 * 1024 * 1024)
	return badger.Open(opts)
}
