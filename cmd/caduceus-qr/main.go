package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	_ "image/png"
	"io"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/makiuchi-d/gozxing"
	qr "github.com/makiuchi-d/gozxing/qrcode"
	"github.com/pkg/errors"
	"github.com/skip2/go-qrcode"
	"github.com/spf13/cobra"

	"github.com/caduceus-vc/caduceus/pkg/controller"
)

var (
	apiURL string
	apiKey string
	alias  string
	out    string
	stage  bool
)

var rootCmd = &cobra.Command{
	Use:   "caduceus-qr",
	Short: "Invitation QR codes for caduceus controllers",
}

var encodeCmd = &cobra.Command{
	Use:   "encode",
	Short: "Create an invitation on an institution and write it as a QR code",
	Run: func(_ *cobra.Command, _ []string) {
		u, err := createInvitation(http.DefaultClient, apiURL, apiKey, alias)
		if err != nil {
			log.Fatalln(err)
		}

		fmt.Println(u)
		if err := qrcode.WriteFile(u, qrcode.Medium, 256, out); err != nil {
			log.Fatalln(err)
		}
	},
}

var decodeCmd = &cobra.Command{
	Use:   "decode <file.png>",
	Short: "Read an invitation QR code, optionally staging it on a holder",
	Args:  cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		f, err := os.Open(args[0])
		if err != nil {
			log.Fatalln(err)
		}
		defer f.Close()

		u, err := decode(f)
		if err != nil {
			log.Fatalln(err)
		}

		fmt.Println(u)
		if !stage {
			return
		}

		if err := stageInvitation(http.DefaultClient, apiURL, apiKey, u); err != nil {
			log.Fatalln(err)
		}
		fmt.Println("invitation staged, accept it with POST /pending/invitations/:id/accept")
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiURL, "api", "http://localhost:7779", "controller API base URL")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", "", "controller API key")

	encodeCmd.Flags().StringVar(&alias, "alias", "", "connection alias")
	encodeCmd.Flags().StringVar(&out, "out", "./invite.png", "output file")
	decodeCmd.Flags().BoolVar(&stage, "stage", false, "stage the invitation on the holder at --api")

	rootCmd.AddCommand(encodeCmd, decodeCmd)
}

func post(client *http.Client, base, key, path string, body interface{}) (*http.Response, error) {
	d, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequest(http.MethodPost, strings.TrimSuffix(base, "/")+path, bytes.NewReader(d))
	if err != nil {
		return nil, errors.Wrap(err, "unexpected error creating request")
	}
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set(controller.APIKeyHeaderName, key)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "error calling %s", path)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, errors.Errorf("%s returned %d", path, resp.StatusCode)
	}
	return resp, nil
}

func createInvitation(client *http.Client, base, key, alias string) (string, error) {
	resp, err := post(client, base, key, "/invitations", map[string]string{"alias": alias})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	m := struct {
		URL string `json:"invitation_url"`
	}{}
	if err := json.NewDecoder(resp.Body).Decode(&m); err != nil {
		return "", errors.Wrap(err, "unable to decode invitation response")
	}
	if m.URL == "" {
		return "", errors.New("response carries no invitation_url")
	}
	return m.URL, nil
}

func stageInvitation(client *http.Client, base, key, invitationURL string) error {
	resp, err := post(client, base, key, "/pending/invitations", map[string]string{"invitation_url": invitationURL})
	if err != nil {
		return err
	}
	return resp.Body.Close()
}

func decode(r io.Reader) (string, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return "", errors.Wrap(err, "unable to read image")
	}

	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", errors.Wrap(err, "unable to binarize image")
	}

	result, err := qr.NewQRCodeReader().Decode(bmp, nil)
	if err != nil {
		return "", errors.Wrap(err, "no QR code found")
	}
	return result.GetText(), nil
}
