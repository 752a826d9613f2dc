/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package main

// credxgen is a command line tool that generates issuer keys, runs a blind
// issuance against them and lets the holder turn the result into a
// credential stored in a local wallet

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"

	"github.com/IBM/credx/blind"
	"github.com/IBM/credx/claim"
	"github.com/IBM/credx/common/flogging"
	"github.com/IBM/credx/interchange"
	"github.com/IBM/credx/internal/bbs"
	"github.com/IBM/credx/issuer"
	"github.com/IBM/credx/schema"
	"github.com/IBM/credx/tools/credxgen/credxca"
	"github.com/IBM/credx/tools/credxgen/metadata"
	"github.com/IBM/credx/wallet"
	"github.com/IBM/credx/wallet/kvs"
	math "github.com/IBM/mathlib"
	"github.com/pkg/errors"
	"gopkg.in/alecthomas/kingpin.v2"
)

const (
	CredxDirIssuer             = "ca"
	CredxDirMsp                = "msp"
	CredxDirWallet             = "wallet"
	CredxConfigIssuerSecretKey = "IssuerSecretKey"
	CredxConfigIssuerPublic    = "IssuerPublic"

	FormatJSON  = "json"
	FormatProto = "proto"

	blindSuffix   = ".blind"
	secretsSuffix = ".secrets"
)

// command line flags
var (
	app = kingpin.New("credxgen", "Utility for issuing blind credentials and reconciling them in a holder wallet")

	outputDir = app.Flag("output", "The output directory in which to place artifacts").Default("credx-config").String()
	format    = app.Flag("format", "The encoding of issuer and wallet artifacts").Default(FormatJSON).Enum(FormatJSON, FormatProto)
	logLevel  = app.Flag("log-level", "The logging level").Default("info").String()
	logFormat = app.Flag("log-format", "The logging format").Default(flogging.FormatLogfmt).Enum(flogging.FormatLogfmt, flogging.FormatJSON, flogging.FormatConsole)

	genIssuerKey    = app.Command("issuer-keygen", "Generate issuer key material for a credential schema")
	genIssuerSchema = genIssuerKey.Flag("schema", "The JSON file holding the credential schema").Required().ExistingFile()
	genIssuerID     = genIssuerKey.Flag("id", "The issuer identifier").Required().String()

	blindIssue                 = app.Command("blind-issue", "Run a blind issuance and store the issuer response and holder secrets in the wallet")
	blindIssueCAInput          = blindIssue.Flag("ca-input", "The folder where the issuer's secrets are stored").String()
	blindIssueClaims           = blindIssue.Flag("claims", "The JSON file holding the claim values by label").Required().ExistingFile()
	blindIssueBlind            = blindIssue.Flag("blind", "A claim label kept hidden from the issuer").Strings()
	blindIssueRevocationLabel  = blindIssue.Flag("revocation-label", "The claim label designated for revocation").Required().String()
	blindIssueRevocationHandle = blindIssue.Flag("revocation-handle", "The revocation handle assigned by the issuer").String()
	blindIssueID               = blindIssue.Flag("id", "The credential identifier").Required().String()

	unblind   = app.Command("unblind", "Reconcile a blind credential with the holder secrets")
	unblindID = unblind.Flag("id", "The credential identifier").Required().String()

	inspect       = app.Command("inspect", "Print the claims of a credential")
	inspectID     = inspect.Flag("id", "The credential identifier").Required().String()
	inspectVerify = inspect.Flag("verify", "Verify the credential signature").Bool()

	list = app.Command("list", "List the wallet entries")

	version = app.Command("version", "Show version information")
)

var logger = flogging.MustGetLogger("credxgen")

func main() {
	app.HelpFlag.Short('h')

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	handleError(flogging.Init(flogging.Config{Format: *logFormat, Level: *logLevel}))

	curve := math.Curves[math.BLS12_381_BBS]
	scheme, err := bbs.NewScheme(curve)
	handleError(err)

	switch command {

	case genIssuerKey.FullCommand():
		s := readSchema(*genIssuerSchema)
		isk, pub, err := credxca.GenerateIssuerKey(scheme, *genIssuerID, s)
		handleError(err)
		ipk, err := codec().Marshal(pub.ToText())
		handleError(err)

		// Prevent overwriting the existing key
		path := filepath.Join(*outputDir, CredxDirIssuer)
		checkDirectoryNotExists(path, fmt.Sprintf("Directory %s already exists", path))

		path = filepath.Join(*outputDir, CredxDirMsp)
		checkDirectoryNotExists(path, fmt.Sprintf("Directory %s already exists", path))

		handleError(os.MkdirAll(filepath.Join(*outputDir, CredxDirIssuer), 0770))
		handleError(os.MkdirAll(filepath.Join(*outputDir, CredxDirMsp), 0770))
		writeFile(filepath.Join(*outputDir, CredxDirIssuer, CredxConfigIssuerSecretKey), isk)
		writeFile(filepath.Join(*outputDir, CredxDirIssuer, CredxConfigIssuerPublic), ipk)
		writeFile(filepath.Join(*outputDir, CredxDirMsp, CredxConfigIssuerPublic), ipk)
		logger.Infof("issuer [%s] key generated for schema [%s]", pub.ID, s.ID)

	case blindIssue.FullCommand():
		if *blindIssueCAInput == "" {
			blindIssueCAInput = outputDir
		}
		isk, pub := readIssuer(*blindIssueCAInput)
		known, hidden := splitClaims(readClaims(*blindIssueClaims), *blindIssueBlind)

		b, blinder, err := credxca.IssueBlind(scheme, isk, pub, known, hidden,
			*blindIssueRevocationLabel, []byte(*blindIssueRevocationHandle))
		handleError(err)

		store := openWallet(curve)
		handleError(store.PutBlindBundle(*blindIssueID+blindSuffix, b))
		handleError(store.PutHolderSecrets(*blindIssueID+secretsSuffix, hidden, blinder))
		logger.Infow("blind credential issued",
			"id", *blindIssueID,
			"issuer", pub.ID,
			"blind_claims", strings.Join(*blindIssueBlind, ","),
		)

	case unblind.FullCommand():
		store := openWallet(curve)
		cred, err := store.Unblind(blind.NewReconciler(curve), *unblindID, *unblindID+blindSuffix, *unblindID+secretsSuffix)
		handleError(err)
		logger.Infof("credential [%s] stored with [%d] claims", *unblindID, len(cred.Credential.Claims))

	case inspect.FullCommand():
		cred, err := openWallet(curve).GetCredential(*inspectID)
		handleError(err)

		fmt.Printf("issuer: %s\nschema: %s\n", cred.Issuer.ID, cred.Issuer.Schema.ID)
		labels := cred.Issuer.Schema.Labels()
		for i := 0; i < len(labels) && i < len(cred.Credential.Claims); i++ {
			l := labels[i]
			marker := ""
			if i == cred.Credential.RevocationIndex {
				marker = " (revocation)"
			}
			fmt.Printf("  %s = %s%s\n", l, cred.Credential.Claims[i], marker)
		}

		if *inspectVerify {
			handleError(credxca.Verify(scheme, cred))
			fmt.Println("signature: valid")
		}

	case list.FullCommand():
		ids, err := openWallet(curve).List()
		handleError(err)
		for _, id := range ids {
			fmt.Println(id)
		}

	case version.FullCommand():
		printVersion()

	}
}

func printVersion() {
	fmt.Println(metadata.GetVersionInfo())
}

func codec() kvs.Codec {
	if *format == FormatProto {
		return interchange.ProtoCodec{}
	}
	return kvs.JSONCodec{}
}

func openWallet(curve *math.Curve) *wallet.Store {
	fs, err := kvs.NewFileBased(filepath.Join(*outputDir, CredxDirWallet), codec())
	handleError(err)

	return &wallet.Store{KVS: fs, Curve: curve}
}

// splitClaims separates the claims the issuer sees from the blind ones
func splitClaims(claims map[string]claim.Data, blindLabels []string) (map[string]claim.Data, map[string]claim.Data) {
	known := make(map[string]claim.Data, len(claims))
	for l, d := range claims {
		known[l] = d
	}

	hidden := make(map[string]claim.Data, len(blindLabels))
	for _, l := range blindLabels {
		d, ok := known[l]
		if !ok {
			handleError(errors.Errorf("blind claim [%s] has no value", l))
		}
		hidden[l] = d
		delete(known, l)
	}

	return known, hidden
}

// writeFile writes bytes to a file and exits in case of an error
func writeFile(path string, contents []byte) {
	handleError(ioutil.WriteFile(path, contents, 0640))
}

func readSchema(path string) *schema.CredentialSchema {
	raw, err := ioutil.ReadFile(path)
	if err != nil {
		handleError(errors.Wrapf(err, "failed to open schema file: %s", path))
	}

	text := &schema.CredentialSchemaText{}
	handleError(errors.Wrapf(json.Unmarshal(raw, text), "failed to parse schema file: %s", path))

	s, err := text.ToSchema()
	handleError(err)

	return s
}

func readClaims(path string) map[string]claim.Data {
	raw, err := ioutil.ReadFile(path)
	if err != nil {
		handleError(errors.Wrapf(err, "failed to open claims file: %s", path))
	}

	text := map[string]claim.Text{}
	handleError(errors.Wrapf(json.Unmarshal(raw, &text), "failed to parse claims file: %s", path))

	claims, err := claim.MapFromText(text)
	handleError(err)

	return claims
}

// readIssuer reads the issuer secret key and public information from dir
func readIssuer(dir string) ([]byte, *issuer.Public) {
	path := filepath.Join(dir, CredxDirIssuer, CredxConfigIssuerSecretKey)
	isk, err := ioutil.ReadFile(path)
	if err != nil {
		handleError(errors.Wrapf(err, "failed to open issuer secret key file: %s", path))
	}

	path = filepath.Join(dir, CredxDirIssuer, CredxConfigIssuerPublic)
	raw, err := ioutil.ReadFile(path)
	if err != nil {
		handleError(errors.Wrapf(err, "failed to open issuer public file: %s", path))
	}

	text := &issuer.PublicText{}
	handleError(codec().Unmarshal(raw, text))
	pub, err := text.ToPublic()
	handleError(err)

	return isk, pub
}

// checkDirectoryNotExists checks whether a directory with the given path already exists and exits if this is the case
func checkDirectoryNotExists(path string, errorMessage string) {
	_, err := os.Stat(path)
	if err == nil {
		handleError(errors.New(errorMessage))
	}
}

func handleError(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
