package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"quantifyme/internal/config"
	"quantifyme/internal/db"
	"quantifyme/internal/domain"
	"quantifyme/internal/llm"
	"quantifyme/internal/repository"
	"quantifyme/internal/score"
	"quantifyme/internal/service"
)

func main() {
	ctx := context.Background()
	reader := bufio.NewReader(os.Stdin)

	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := zap.NewExample()
	defer logger.Sync()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		log.Fatal(err)
	}

	userRepo := repository.NewPgUserRepository(pool)
	recordRepo := repository.NewPgRecordRepository(pool)

	engine := score.NewEngine(cfg.MaxSleepHours, cfg.RoundingDigits, cfg.ClampOutput)

	var llmClient llm.LLMClient
	if cfg.AIProvider == "openai" && cfg.AIAPIKey != "" {
		llmClient = llm.NewHTTPClient(cfg.AIBaseURL, cfg.AIAPIKey, cfg.AIModel, time.Duration(cfg.AITimeoutSecs)*time.Second, logger)
	}
	interpLimiter := service.NewInterpretationRateLimiter(time.Duration(cfg.AIRateWindowMin)*time.Minute, cfg.AIRateLimit)
	interpSvc := service.NewInterpretationService(llmClient, interpLimiter, time.Duration(cfg.AITimeoutSecs)*time.Second, logger)
	recordSvc := service.NewRecordService(engine, recordRepo, interpSvc, logger)
	userSvc := service.NewUserService(logger, userRepo)

	fmt.Print("Email: ")
	email, _ := reader.ReadString('\n')
	user, err := userSvc.GetOrCreate(ctx, strings.TrimSpace(email))
	if err != nil {
		log.Fatalf("obtener usuario: %v", err)
	}

	for {
		fmt.Println("\n===== Registro Diario =====")
		fmt.Println("[1] Registrar dia")
		fmt.Println("[2] Ver ultimos registros")
		fmt.Println("[3] Promedio semanal")
		fmt.Println("[4] Salir")
		fmt.Print("Selecciona una opcion: ")

		line, _ := reader.ReadString('\n')
		line = strings.TrimSpace(line)
		switch line {
		case "1":
			if err := logDayFlow(ctx, reader, user.ID, recordSvc); err != nil {
				fmt.Printf("Error registrando dia: %v\n", err)
			}
		case "2":
			if err := historyFlow(ctx, reader, user.ID, recordSvc); err != nil {
				fmt.Printf("Error listando registros: %v\n", err)
			}
		case "3":
			avg, ok, err := recordSvc.WeeklyAverage(ctx, user.ID, nil)
			if err != nil {
				fmt.Printf("Error calculando promedio: %v\n", err)
			} else if !ok {
				fmt.Println("Sin registros en los ultimos 7 dias.")
			} else {
				fmt.Printf("Promedio semanal: %.2f\n", avg)
			}
		case "4":
			os.Exit(0)
		default:
			fmt.Println("Opcion invalida.")
		}
	}
}

func logDayFlow(ctx context.Context, reader *bufio.Reader, userID int64, recordSvc *service.RecordService) error {
	fmt.Print("Fecha (YYYY-MM-DD, vacio = hoy): ")
	rawDate, _ := reader.ReadString('\n')
	rawDate = strings.TrimSpace(rawDate)

	day := domain.Today()
	if rawDate != "" {
		parsed, err := domain.ParseDay(rawDate)
		if err != nil {
			return fmt.Errorf("fecha invalida: %w", err)
		}
		day = parsed
	}

	metrics := score.Metrics{
		Mood:       readFloat(reader, "Animo (0-10): "),
		SleepHours: readFloat(reader, "Horas de sueno: "),
		Stress:     readFloat(reader, "Estres (0-10): "),
		Focus:      readFloat(reader, "Concentracion (0-10): "),
	}

	record, result, err := recordSvc.LogDay(ctx, service.LogDayInput{
		UserID:   userID,
		Day:      day,
		Metrics:  metrics,
		Annotate: true,
	})
	if err != nil {
		var verr *score.ValidationError
		if errors.As(err, &verr) {
			for _, v := range verr.Violations {
				fmt.Printf("  %s fuera de rango: %g (esperado %g..%g)\n", v.Field, v.Value, v.Min, v.Max)
			}
			return errors.New("metricas invalidas")
		}
		return err
	}

	fmt.Printf("\nScore del dia %s: %.2f\n", record.Day, result.Score)
	if record.Annotation != "" {
		fmt.Println(record.Annotation)
	} else {
		fmt.Println(score.Interpret(result.Score))
	}
	return nil
}

func historyFlow(ctx context.Context, reader *bufio.Reader, userID int64, recordSvc *service.RecordService) error {
	n := readIntDefault(reader, "Cuantos registros (default 7): ", 7)

	records, err := recordSvc.LastN(ctx, userID, n)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("Sin registros.")
		return nil
	}
	for _, r := range records {
		fmt.Printf("%s  score=%.2f  animo=%.1f sueno=%.1f estres=%.1f foco=%.1f\n",
			r.Day, r.Score, r.Mood, r.SleepHours, r.Stress, r.Focus)
	}
	return nil
}

func readFloat(reader *bufio.Reader, prompt string) float64 {
	for {
		fmt.Print(prompt)
		line, _ := reader.ReadString('\n')
		line = strings.TrimSpace(line)
		v, err := strconv.ParseFloat(line, 64)
		if err == nil {
			return v
		}
		fmt.Println("Numero invalido.")
	}
}

func readIntDefault(reader *bufio.Reader, prompt string, def int) int {
	fmt.Print(prompt)
	line, _ := reader.ReadString('\n')
	line = strings.TrimSpace(line)
	if line == "" {
		return def
	}
	if v, err := strconv.Atoi(line); err == nil && v > 0 {
		return v
	}
	return def
}
