// Command sqrlidctl is a small operator tool over the identity library:
// create an identity, inspect its container id, rekey it, and export a
// rescue-only copy. It exists to exercise the library end to end, not as
// the SQRL client itself (no network, no UI).
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"sqrlcore/block"
	"sqrlcore/broker"
	"sqrlcore/storage"
	"sqrlcore/user"
)

func main() {
	createCmd := flag.NewFlagSet("create", flag.ExitOnError)
	createFile := createCmd.String("file", "./identity.sqrl", "path to identity container")
	createMongoURI := createCmd.String("mongo", "", "MongoDB URI (optional)")
	createDB := createCmd.String("db", "sqrlidentities", "Mongo database name")
	createColl := createCmd.String("coll", "containers", "Mongo collection name")

	idCmd := flag.NewFlagSet("id", flag.ExitOnError)
	idFile := idCmd.String("file", "./identity.sqrl", "path to identity container")

	rekeyCmd := flag.NewFlagSet("rekey", flag.ExitOnError)
	rekeyFile := rekeyCmd.String("file", "./identity.sqrl", "path to identity container")

	rescueCmd := flag.NewFlagSet("export-rescue", flag.ExitOnError)
	rescueFile := rescueCmd.String("file", "./identity.sqrl", "path to identity container")
	rescueOut := rescueCmd.String("out", "./identity.rescue.sqrl", "path to write the rescue-only export")

	hintCmd := flag.NewFlagSet("hint-demo", flag.ExitOnError)
	hintFile := hintCmd.String("file", "./identity.sqrl", "path to identity container")
	hintIterations := hintCmd.Uint("iterations", 100, "hint-lock iteration count")

	if len(os.Args) < 2 {
		usage()
		return
	}

	switch os.Args[1] {
	case "create":
		_ = createCmd.Parse(os.Args[2:])
		adapter, uri, err := buildAdapter(*createFile, *createMongoURI, *createDB, *createColl)
		dieIf(err)
		dieIf(cmdCreate(adapter, uri))

	case "id":
		_ = idCmd.Parse(os.Args[2:])
		adapter := storage.NewFileAdapter()
		dieIf(cmdID(adapter, *idFile))

	case "rekey":
		_ = rekeyCmd.Parse(os.Args[2:])
		adapter := storage.NewFileAdapter()
		dieIf(cmdRekey(adapter, *rekeyFile))

	case "export-rescue":
		_ = rescueCmd.Parse(os.Args[2:])
		adapter := storage.NewFileAdapter()
		dieIf(cmdExportRescue(adapter, *rescueFile, *rescueOut))

	case "hint-demo":
		_ = hintCmd.Parse(os.Args[2:])
		adapter := storage.NewFileAdapter()
		dieIf(cmdHintDemo(adapter, *hintFile, uint32(*hintIterations)))

	default:
		usage()
	}
}

func usage() {
	fmt.Print(`sqrlidctl commands:

  create         --file path [--mongo URI --db sqrlidentities --coll containers]
  id             --file path
  rekey          --file path
  export-rescue  --file path --out rescue-path
  hint-demo      --file path [--iterations 100]

Examples:
  sqrlidctl create --file ./identity.sqrl
  sqrlidctl id --file ./identity.sqrl
  sqrlidctl rekey --file ./identity.sqrl
  sqrlidctl export-rescue --file ./identity.sqrl --out ./identity.rescue.sqrl
  sqrlidctl hint-demo --file ./identity.sqrl
`)
}

func buildAdapter(file, mongoURI, db, coll string) (storage.URIAdapter, string, error) {
	if mongoURI == "" {
		return storage.NewFileAdapter(), file, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	a, err := storage.NewMongoAdapter(ctx, mongoURI, db, coll)
	if err != nil {
		return nil, "", err
	}
	return a, file, nil
}

func cmdCreate(adapter storage.URIAdapter, uri string) error {
	master, err := promptSecret("New master password: ")
	if err != nil {
		return err
	}
	defer zero(master)

	u := user.NewUser()
	if err := u.SetPassword(master); err != nil {
		return err
	}
	if err := u.Rekey(); err != nil {
		return err
	}

	pwBlock, err := u.SealPasswordBlock()
	if err != nil {
		return fmt.Errorf("seal password block: %w", err)
	}
	rescueBlock, err := u.SealRescueBlock()
	if err != nil {
		return fmt.Errorf("seal rescue block: %w", err)
	}

	s := storage.New()
	s.Put(identityBlock(u))
	s.Put(pwBlock)
	s.Put(rescueBlock)
	u.SyncUniqueID(s)

	ctx := context.Background()
	if err := s.SaveToURI(ctx, adapter, uri, storage.ExportAll, storage.EncodingBase64); err != nil {
		return err
	}
	fmt.Println("created identity:", uri)
	fmt.Println("unique id:", u.UniqueID())
	fmt.Println("rescue code:", u.GetRescueCode())
	return nil
}

func cmdID(adapter storage.URIAdapter, uri string) error {
	s := storage.New()
	ctx := context.Background()
	if err := s.LoadFromURI(ctx, adapter, uri); err != nil {
		return err
	}
	id := s.UniqueID()
	if id == "" {
		return errors.New("container has no type-0 block")
	}
	fmt.Println(id)
	return nil
}

func cmdRekey(adapter storage.URIAdapter, uri string) error {
	s := storage.New()
	ctx := context.Background()
	if err := s.LoadFromURI(ctx, adapter, uri); err != nil {
		return err
	}

	master, err := promptSecret("Master password: ")
	if err != nil {
		return err
	}
	defer zero(master)

	u := user.NewUser()
	if err := u.SetPassword(master); err != nil {
		return err
	}

	limited := broker.NewRateLimited(stdinBroker{}, s.UniqueID(), 1, 3, time.Minute)
	if err := u.ForceDecrypt(ctx, limited, s); err != nil {
		return fmt.Errorf("unlock: %w", err)
	}
	// Rekey only rotates the current IUK into PIUK0 (for archiving below) if
	// that IUK is already loaded, and the only credential that unlocks IUK
	// is the rescue code.
	if err := u.ForceRescue(ctx, limited, s); err != nil {
		return fmt.Errorf("unlock: %w", err)
	}
	if err := u.Rekey(); err != nil {
		return err
	}

	pwBlock, err := u.SealPasswordBlock()
	if err != nil {
		return fmt.Errorf("seal password block: %w", err)
	}
	rescueBlock, err := u.SealRescueBlock()
	if err != nil {
		return fmt.Errorf("seal rescue block: %w", err)
	}

	s.Put(identityBlock(u))
	s.Put(pwBlock)
	s.Put(rescueBlock)
	if piukBlock, err := u.SealPreviousIUKBlock(); err == nil {
		s.Put(piukBlock)
	} else if !errors.Is(err, user.ErrKeyTableMissing) {
		return fmt.Errorf("seal previous-IUK block: %w", err)
	}
	u.SyncUniqueID(s)
	if err := s.SaveToURI(ctx, adapter, uri, storage.ExportAll, storage.EncodingBase64); err != nil {
		return err
	}
	fmt.Println("rekeyed:", uri)
	fmt.Println("new unique id:", u.UniqueID())
	return nil
}

// cmdHintDemo unlocks a container with its master password, then exercises
// the hint-lock/unlock round trip in a single process run: hint-locking the
// recovered master key under a short hint and immediately unlocking it
// again. Hint-lock state lives only in the key table's scratch region for
// the lifetime of the process; there is no on-disk representation of it.
func cmdHintDemo(adapter storage.URIAdapter, uri string, iterations uint32) error {
	s := storage.New()
	ctx := context.Background()
	if err := s.LoadFromURI(ctx, adapter, uri); err != nil {
		return err
	}

	master, err := promptSecret("Master password: ")
	if err != nil {
		return err
	}
	defer zero(master)

	u := user.NewUser()
	if err := u.SetPassword(master); err != nil {
		return err
	}
	if err := u.ForceDecrypt(ctx, stdinBroker{}, s); err != nil {
		return fmt.Errorf("unlock: %w", err)
	}

	hint, err := promptSecret("Short hint: ")
	if err != nil {
		return err
	}
	defer zero(hint)

	if err := u.HintLock(hint, iterations); err != nil {
		return fmt.Errorf("hint lock: %w", err)
	}
	fmt.Println("hint-locked, hint_iterations:", u.HintIterations())

	mk, err := u.HintUnlock(u, hint)
	if err != nil {
		return fmt.Errorf("hint unlock: %w", err)
	}
	defer zero(mk)
	fmt.Println("hint-unlocked master key, hint_iterations now:", u.HintIterations())
	return nil
}

func cmdExportRescue(adapter storage.URIAdapter, uri, out string) error {
	s := storage.New()
	ctx := context.Background()
	if err := s.LoadFromURI(ctx, adapter, uri); err != nil {
		return err
	}
	if !s.Has(2) {
		return errors.New("container has no rescue block")
	}
	outAdapter := storage.NewFileAdapter()
	if err := s.SaveToURI(ctx, outAdapter, out, storage.ExportRescue, storage.EncodingBase64); err != nil {
		return err
	}
	fmt.Println("wrote rescue-only export:", out)
	return nil
}

// identityBlock packs the user's type-0 identifying block, whose serialized
// bytes seed Storage.UniqueID. The password- and rescue-code-sealed key
// blocks (types 1 and 2) are built separately by SealPasswordBlock and
// SealRescueBlock.
func identityBlock(u *user.User) *block.Block {
	b, err := block.Create(0, 8)
	if err != nil {
		panic(err)
	}
	b.Seek(block.HeaderSize, false)
	rc := u.GetRescueCode()
	b.Write([]byte{rc[0], rc[1], rc[2], rc[3]})
	return b
}

// stdinBroker implements broker.Broker by prompting on stdin. It is a thin
// reference adapter; a real embedder would wire this to a UI.
type stdinBroker struct{}

func (stdinBroker) RequestCredential(_ context.Context, kind broker.Kind) ([]byte, error) {
	return promptSecret(fmt.Sprintf("%s: ", kind))
}

func promptSecret(prompt string) ([]byte, error) {
	fmt.Print(prompt)
	br := bufio.NewReader(os.Stdin)
	line, err := br.ReadBytes('\n')
	if err != nil {
		return nil, err
	}
	if len(line) > 0 && line[len(line)-1] == '\n' {
		line = line[:len(line)-1]
	}
	return line, nil
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

func dieIf(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
