package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"go.uber.org/zap"

	"specflow/internal/apiclient"
	"specflow/internal/checkout"
	"specflow/internal/config"
	"specflow/internal/generator"
	"specflow/internal/llm"
	"specflow/internal/session"
)

type app struct {
	reader    *bufio.Reader
	closed    bool
	api       *apiclient.Client
	session   *session.Store
	specGen   llm.SpecGenerator
	view      *generator.View
}

// newApp arma la aplicacion; el store se crea con a.reload como hook de logout.
func newApp(in io.Reader, api *apiclient.Client, storage session.Storage, specGen llm.SpecGenerator) *app {
	a := &app{
		reader:    bufio.NewReader(in),
		api:       api,
		specGen:   specGen,
		view:      generator.NewView(specGen),
	}
	a.session = session.NewStore(storage, a.reload)
	return a
}

// reload descarta el estado de la sesion anterior, como un recargado completo de la aplicacion.
func (a *app) reload() {
	a.view = generator.NewView(a.specGen)
	fmt.Println("Sesion cerrada.")
}

func main() {
	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	path := cfg.SessionFile
	if path == "" {
		if path, err = session.DefaultPath(); err != nil {
			log.Fatal(err)
		}
	}
	api := apiclient.New(cfg.APIBaseURL, nil, logger)

	// Con API key local se llama al LLM directo; si no, el backend hace de proxy.
	var specGen llm.SpecGenerator = api
	if cfg.LLMAPIKey != "" {
		specGen = llm.NewHTTPClient(llm.Options{
			BaseURL:     cfg.LLMBaseURL,
			APIKey:      cfg.LLMAPIKey,
			TextModel:   cfg.LLMTextModel,
			VisionModel: cfg.LLMVisionModel,
		}, logger)
	}

	a := newApp(os.Stdin, api, session.NewFileStorage(path), specGen)
	if err := a.session.Init(); err != nil {
		log.Fatalf("restaurar sesion: %v", err)
	}
	a.run(session.WithStore(ctx, a.session))
}

func (a *app) run(ctx context.Context) {
	for !a.closed {
		fmt.Println("\n===== SpecFlow =====")
		if user, ok := a.session.User(); ok {
			fmt.Printf("Sesion: %s <%s>\n", user.Name, user.Email)
		} else {
			fmt.Println("Sesion: anonima")
		}
		fmt.Println("[1] Generar spec")
		fmt.Println("[2] Iniciar sesion")
		fmt.Println("[3] Crear cuenta")
		fmt.Println("[4] Upgrade a Pro")
		fmt.Println("[5] Newsletter")
		fmt.Println("[6] Contacto")
		fmt.Println("[7] Olvide mi contrasena")
		fmt.Println("[8] Cerrar sesion")
		fmt.Println("[9] Salir")

		var err error
		switch a.prompt("Opcion: ") {
		case "1":
			err = a.generateFlow(ctx)
		case "2":
			err = a.loginFlow(ctx)
		case "3":
			err = a.signupFlow(ctx)
		case "4":
			err = a.checkoutFlow(ctx)
		case "5":
			err = a.subscribeFlow(ctx)
		case "6":
			err = a.contactFlow(ctx)
		case "7":
			err = a.resetFlow(ctx)
		case "8":
			err = session.MustFromContext(ctx).Logout()
		case "9":
			return
		default:
			fmt.Println("Seleccion invalida.")
		}
		if err != nil {
			fmt.Printf("Error: %s\n", userMessage(err))
		}
	}
}

func (a *app) prompt(label string) string {
	fmt.Print(label)
	line, err := a.reader.ReadString('\n')
	if err != nil {
		a.closed = true
	}
	return strings.TrimSpace(line)
}

func (a *app) generateFlow(ctx context.Context) error {
	for !a.closed {
		snap := a.view.Snapshot()
		fmt.Println("\n--- Generador ---")
		fmt.Printf("Idea: %q  Imagen: %v\n", snap.Text, snap.HasImage)
		fmt.Println("[t] Escribir idea  [d] Dictar  [i] Adjuntar imagen  [r] Quitar imagen  [g] Generar  [v] Ver resultado  [b] Volver")

		switch a.prompt("> ") {
		case "t":
			a.view.SetText(a.prompt("Idea: "))
		case "d":
			a.dictate()
		case "i":
			if err := a.view.AttachImageFile(a.prompt("Ruta de la imagen: ")); err != nil {
				return err
			}
		case "r":
			a.view.RemoveImage()
		case "g":
			if !a.view.CanSubmit() {
				fmt.Println("Escribe una idea o adjunta una imagen primero.")
				continue
			}
			fmt.Println("Generating spec...")
			if _, err := a.view.Submit(ctx); err != nil && errors.Is(err, generator.ErrSubmitInFlight) {
				continue
			}
			_ = generator.RenderSnapshot(os.Stdout, a.view.Snapshot())
		case "v":
			_ = generator.RenderSnapshot(os.Stdout, a.view.Snapshot())
		case "b":
			return nil
		}
	}
	return nil
}

// dictate trata cada linea como una frase final del reconocedor hasta una linea vacia.
func (a *app) dictate() {
	a.view.StartDictation()
	defer a.view.StopDictation()
	fmt.Println("Dictando. Linea vacia para terminar.")
	for {
		phrase := a.prompt("... ")
		if phrase == "" {
			return
		}
		a.view.OnTranscript(phrase, true)
	}
}

func (a *app) loginFlow(ctx context.Context) error {
	fmt.Println("[1] Email y contrasena  [2] Google (access token)")
	var (
		res apiclient.AuthResponse
		err error
	)
	if a.prompt("> ") == "2" {
		res, err = a.api.GoogleLogin(ctx, a.prompt("Access token de Google: "))
	} else {
		res, err = a.api.Login(ctx, a.prompt("Email: "), a.prompt("Contrasena: "))
	}
	if err != nil {
		return err
	}
	if err := a.session.Login(res.Token, res.User); err != nil {
		return err
	}
	fmt.Printf("Bienvenido, %s.\n", res.User.Name)
	return nil
}

func (a *app) signupFlow(ctx context.Context) error {
	res, err := a.api.Signup(ctx, a.prompt("Usuario: "), a.prompt("Email: "), a.prompt("Contrasena: "))
	if err != nil {
		return err
	}
	return a.session.Login(res.Token, res.User)
}

func (a *app) checkoutFlow(ctx context.Context) error {
	flow := checkout.NewFlow(a.api, a.api)

	details := checkout.NewDetails()
	if user, ok := a.session.User(); ok {
		details.Email = user.Email
		details.FullName = user.Name
	}
	for flow.Step() != checkout.StepConfirmed && !a.closed {
		if flow.Step() == checkout.StepDetails {
			details.Email = a.promptDefault("Email", details.Email)
			details.FullName = a.promptDefault("Nombre completo", details.FullName)
			details.Address = a.promptDefault("Direccion", details.Address)
			details.City = a.promptDefault("Ciudad", details.City)
			details.Zip = a.promptDefault("Codigo postal", details.Zip)
			details.Country = a.promptDefault("Pais", details.Country)
			_ = flow.SetDetails(details)

			if strings.EqualFold(a.prompt("Facturacion anual con 20% de descuento? [s/N]: "), "s") {
				_ = flow.SetCycle("yearly")
			} else {
				_ = flow.SetCycle("monthly")
			}
			printQuote(flow.Quote())

			if err := flow.Next(ctx); err != nil {
				fmt.Printf("Error: %s\n", userMessage(err))
				if strings.EqualFold(a.prompt("Reintentar? [S/n]: "), "n") {
					return nil
				}
			}
			continue
		}

		method := a.prompt("Metodo de pago (ej. pm_card_visa, 'b' para volver): ")
		if method == "b" {
			_ = flow.Back()
			continue
		}
		if err := flow.Confirm(ctx, method); err != nil && !errors.Is(err, checkout.ErrPaymentProcessing) {
			fmt.Printf("Error: %s\n", flow.Message())
			continue
		}
		if msg := flow.Message(); msg != "" {
			fmt.Println(msg)
			return nil
		}
	}

	if route, ok := flow.ExitRoute(); ok {
		fmt.Printf("Pago confirmado. Ya puedes volver a %s.\n", route)
	}
	return nil
}

func (a *app) promptDefault(label, current string) string {
	if current != "" {
		label = fmt.Sprintf("%s [%s]", label, current)
	}
	if v := a.prompt(label + ": "); v != "" {
		return v
	}
	return current
}

func printQuote(q checkout.Quote) {
	fmt.Printf("Subtotal: %s  Impuesto (%.0f%%): %s  Total: %s\n",
		checkout.FormatUSD(q.Subtotal), q.TaxRate*100, checkout.FormatUSD(q.Tax), checkout.FormatUSD(q.Total))
}

func (a *app) subscribeFlow(ctx context.Context) error {
	msg, err := a.api.Subscribe(ctx, a.prompt("Email: "))
	if err != nil {
		return err
	}
	fmt.Println(msg)
	return nil
}

func (a *app) contactFlow(ctx context.Context) error {
	msg, err := a.api.Contact(ctx, apiclient.ContactRequest{
		Name:    a.prompt("Nombre: "),
		Email:   a.prompt("Email: "),
		Subject: a.prompt("Asunto: "),
		Message: a.prompt("Mensaje: "),
	})
	if err != nil {
		return err
	}
	fmt.Println(msg)
	return nil
}

func (a *app) resetFlow(ctx context.Context) error {
	msg, err := a.api.ForgotPassword(ctx, a.prompt("Email: "))
	if err != nil {
		return err
	}
	fmt.Println(msg)

	token := a.prompt("Token del enlace recibido (vacio para salir): ")
	if token == "" {
		return nil
	}
	token = token[strings.LastIndex(token, "/")+1:]
	msg, err = a.api.ResetPassword(ctx, token, a.prompt("Nueva contrasena: "))
	if err != nil {
		return err
	}
	fmt.Println(msg)
	return nil
}

func userMessage(err error) string {
	var apiErr *apiclient.Error
	if errors.As(err, &apiErr) {
		return apiErr.UserMessage()
	}
	return generator.ErrorMessage(err)
}
